package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/speech"
	"github.com/faitholopade/codegate/internal/store"
	"github.com/faitholopade/codegate/internal/topics"
)

var generateCmd = &cobra.Command{
	Use:   "generate [feature description]",
	Short: "Generate an annotated code artifact and print it",
	Long: `Generate code for a feature description without starting a quiz.

The description comes from the arguments, --prompt, or a recorded audio file
given with --prompt-audio (transcribed with Whisper).`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("prompt", "p", "", "Feature description")
	generateCmd.Flags().String("prompt-audio", "", "Audio file with a spoken feature description")
	generateCmd.Flags().Bool("json", false, "Print the artifact as JSON")
}

// generateOutput is the --json shape.
type generateOutput struct {
	Prompt string `json:"prompt"`
	*codegen.Artifact
	Topics []string `json:"topics"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
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

	a, err := codegen.New(provider, codegen.DefaultConfig()).Generate(ctx, prompt)
	recordGeneration(ctx, repo, prompt, a, err)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(generateOutput{Prompt: prompt, Artifact: a, Topics: topics.Extract(a.Source)})
	}
	printArtifact(prompt, a)
	return nil
}

// resolvePrompt picks the feature description from arguments, --prompt or
// --prompt-audio, in that order.
func resolvePrompt(ctx context.Context, cmd *cobra.Command, cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if p, _ := cmd.Flags().GetString("prompt"); strings.TrimSpace(p) != "" {
		return p, nil
	}
	if path, _ := cmd.Flags().GetString("prompt-audio"); path != "" {
		w, err := speech.NewWhisper(cfg.Speech.APIKey, cfg.Speech.Model, "")
		if err != nil {
			return "", err
		}
		text, err := speech.TranscribeFile(ctx, w, path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(os.Stderr, "Heard: %s\n", text)
		return text, nil
	}
	return "", errors.New("describe the feature as arguments, with --prompt or with --prompt-audio")
}

func recordGeneration(ctx context.Context, repo store.EventRepo, prompt string, a *codegen.Artifact, err error) {
	data := store.GenerationEventData{Prompt: prompt, Success: err == nil}
	if err != nil {
		data.ErrorMessage = err.Error()
	} else {
		data.Language = a.Language
		data.Segments = len(a.Segments)
	}
	_ = repo.AppendGeneration(context.WithoutCancel(ctx), data)
}

func printArtifact(prompt string, a *codegen.Artifact) {
	sep := strings.Repeat("─", 60)

	fmt.Printf("Feature:   %s\n", prompt)
	fmt.Printf("Language:  %s\n", a.Language)
	fmt.Printf("Lines:     %d\n", a.LineCount())
	fmt.Printf("Topics:    %s\n", strings.Join(topics.Extract(a.Source), ", "))
	fmt.Println()
	fmt.Println(sep)
	fmt.Println(a.Source)
	fmt.Println(sep)

	for i, seg := range a.Segments {
		fmt.Printf("\n── Block %d/%d (%s) ──\n", i+1, len(a.Segments), seg.ID)
		fmt.Println(seg.Code)
		fmt.Printf("\nExplanation: %s\n", seg.Explanation)
		fmt.Printf("Question:    %s\n", seg.Question)
	}
}
