package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/gate"
)

var explainCmd = &cobra.Command{
	Use:   "explain [feature description]",
	Short: "Explain generated code block by block and have each answer graded",
	Long: `Generate code, then answer each block's question in writing. Every
explanation is graded by the model against the expected one.

This is a text-only drill: no voice agent, no approval, nothing is shipped.`,
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringP("prompt", "p", "", "Feature description")
	explainCmd.Flags().String("prompt-audio", "", "Audio file with a spoken feature description")
}

func runExplain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	prompt, err := resolvePrompt(ctx, cmd, cfg, args)
	if err != nil {
		return err
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	repo := st.EventRepo()

	provider, err := newProvider(ctx, cfg, repo)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	svc := codegen.New(provider, codegen.DefaultConfig())

	fmt.Printf("Generating code for: %s\n\n", prompt)
	a, err := svc.Generate(ctx, prompt)
	recordGeneration(ctx, repo, prompt, a, err)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	var total, passed, answered int

	for i, seg := range a.Segments {
		fmt.Printf("── Block %d/%d ──\n", i+1, len(a.Segments))
		fmt.Println(seg.Code)
		fmt.Printf("\n%s\n", seg.Question)

		fmt.Print("\nYour explanation: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Println("(skipped)")
			fmt.Println()
			continue
		}

		ev, err := grade(ctx, svc, seg, answer)
		if err != nil {
			fmt.Printf("Grading failed: %v\n\n", err)
			continue
		}
		answered++
		total += ev.Score
		if ev.Passed {
			passed++
			fmt.Printf("\033[32m✓ %d/100\033[0m %s\n", ev.Score, ev.Feedback)
		} else {
			fmt.Printf("\033[31m✗ %d/100\033[0m %s\n", ev.Score, ev.Feedback)
			fmt.Printf("Expected: %s\n", seg.Explanation)
		}
		fmt.Println()
	}

	if answered == 0 {
		fmt.Println("── No answers graded ──")
		return nil
	}
	avg := total / answered
	verdict := "would be blocked"
	if gate.Passed(avg) {
		verdict = "would pass"
	}
	fmt.Printf("── Summary: %d/%d passed, average %d (%s) ──\n", passed, answered, avg, verdict)
	return nil
}

func grade(ctx context.Context, ev codegen.Evaluator, seg codegen.Segment, answer string) (*codegen.Evaluation, error) {
	return ev.Evaluate(ctx, codegen.EvaluateInput{
		Code:                seg.Code,
		ExpectedExplanation: seg.Explanation,
		UserExplanation:     answer,
	})
}
