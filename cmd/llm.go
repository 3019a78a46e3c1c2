package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/faitholopade/codegate/internal/gate"
	"github.com/faitholopade/codegate/internal/llm"
	"github.com/faitholopade/codegate/internal/store"
	"github.com/faitholopade/codegate/internal/voice"
	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect model calls and the generations they served",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failed, _ := cmd.Flags().GetBool("failed")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		repo := s.EventRepo()
		opts := store.QueryOpts{Limit: limit, Purpose: purpose}
		if failed {
			opts.Limit = 0
		}
		events, err := repo.QueryLLMEvents(ctx, opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if failed {
			events = failedOnly(events, limit)
		}
		return writeLLMList(ctx, cmd.OutOrStdout(), repo, events)
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the full request and response of a model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		repo := s.EventRepo()
		e, err := repo.GetLLMEvent(ctx, id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}
		return writeLLMEvent(ctx, cmd.OutOrStdout(), repo, e)
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call success rates, token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		return writeLLMStats(context.Background(), cmd.OutOrStdout(), s.EventRepo())
	},
}

func failedOnly(events []store.LLMEvent, limit int) []store.LLMEvent {
	var out []store.LLMEvent
	for _, e := range events {
		if e.Success {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// servedGeneration finds the generation attempt a model call belongs to.
// A generate call is closed by the first later attempt for the same
// prompt, so retried calls share one attempt. Every other call works on
// the newest artifact generated before it. Nil means no attempt matched.
func servedGeneration(ctx context.Context, repo store.EventRepo, e store.LLMEvent) (*store.GenerationEvent, error) {
	if e.Purpose != llm.PurposeGenerate {
		return repo.LastGeneration(ctx, e.Sequence)
	}
	after, err := repo.GenerationsAfter(ctx, e.Sequence, 5)
	if err != nil {
		return nil, err
	}
	for i := range after {
		p := strings.TrimSpace(after[i].Prompt)
		if p != "" && strings.Contains(e.RequestBody, p) {
			return &after[i], nil
		}
	}
	return nil, nil
}

func generationLabel(g *store.GenerationEvent, width int) string {
	if g == nil {
		return "-"
	}
	return truncate(fmt.Sprintf("#%d %s", g.ID, g.Prompt), width)
}

func writeLLMList(ctx context.Context, w io.Writer, repo store.EventRepo, events []store.LLMEvent) error {
	if len(events) == 0 {
		fmt.Fprintln(w, "No LLM events found.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-19s  %-9s  %-24s  %-6s  %-6s  %-7s  %-2s  %s\n",
		"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK", "Generation")
	fmt.Fprintln(w, strings.Repeat("─", 116))

	for _, e := range events {
		g, err := servedGeneration(ctx, repo, e)
		if err != nil {
			return fmt.Errorf("link event %d: %w", e.ID, err)
		}
		ok := "✓"
		if !e.Success {
			ok = "✗"
		}
		fmt.Fprintf(w, "%-5d  %-19s  %-9s  %-24s  %-6d  %-6d  %-7d  %-2s  %s\n",
			e.ID,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Purpose,
			truncate(e.Model, 24),
			e.InputTokens,
			e.OutputTokens,
			e.LatencyMs,
			ok,
			generationLabel(g, 28),
		)
	}
	return nil
}

func writeLLMEvent(ctx context.Context, w io.Writer, repo store.EventRepo, e *store.LLMEvent) error {
	g, err := servedGeneration(ctx, repo, *e)
	if err != nil {
		return fmt.Errorf("link event %d: %w", e.ID, err)
	}

	fmt.Fprintf(w, "ID:         %d\n", e.ID)
	fmt.Fprintf(w, "Time:       %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Provider:   %s\n", e.Provider)
	fmt.Fprintf(w, "Model:      %s\n", e.Model)
	fmt.Fprintf(w, "Purpose:    %s\n", e.Purpose)
	fmt.Fprintf(w, "Tokens:     %d in / %d out\n", e.InputTokens, e.OutputTokens)
	fmt.Fprintf(w, "Latency:    %dms\n", e.LatencyMs)
	fmt.Fprintf(w, "Success:    %v\n", e.Success)
	if e.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:      %s\n", e.ErrorMessage)
	}
	if g != nil {
		result := fmt.Sprintf("%s, %d segments", g.Language, g.Segments)
		if !g.Success {
			result = "failed: " + g.ErrorMessage
		}
		fmt.Fprintf(w, "Generation: #%d %q (%s)\n", g.ID, g.Prompt, result)
	} else {
		fmt.Fprintln(w, "Generation: none recorded")
	}

	sep := strings.Repeat("─", 60)
	for _, part := range []struct{ title, body string }{
		{"REQUEST", e.RequestBody},
		{"RESPONSE", e.ResponseBody},
	} {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, part.title)
		fmt.Fprintln(w, sep)
		if part.body == "" {
			fmt.Fprintln(w, "(not captured)")
		} else {
			fmt.Fprintln(w, part.body)
		}
	}
	return nil
}

func writeLLMStats(ctx context.Context, w io.Writer, repo store.EventRepo) error {
	stats, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		return fmt.Errorf("query usage: %w", err)
	}
	if len(stats) == 0 {
		fmt.Fprintln(w, "No LLM usage recorded yet.")
		return nil
	}

	fmt.Fprintln(w, "Calls by Purpose")
	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "%-12s  %6s  %6s  %10s  %10s  %8s\n",
		"Purpose", "Calls", "OK %", "Input", "Output", "Avg Ms")
	fmt.Fprintln(w, strings.Repeat("─", 72))

	var calls, succeeded, totalIn, totalOut int
	for _, st := range stats {
		fmt.Fprintf(w, "%-12s  %6d  %6s  %10d  %10d  %8d\n",
			st.Purpose, st.Calls, percent(st.Succeeded, st.Calls), st.InputTokens, st.OutputTokens, st.AvgLatencyMs)
		calls += st.Calls
		succeeded += st.Succeeded
		totalIn += st.InputTokens
		totalOut += st.OutputTokens
	}
	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "%-12s  %6d  %6s  %10d  %10d\n",
		"TOTAL", calls, percent(succeeded, calls), totalIn, totalOut)

	totals, err := repo.GenerationTotals(ctx)
	if err != nil {
		return fmt.Errorf("query generations: %w", err)
	}
	sessions, err := repo.ListSessions(ctx, 0)
	if err != nil {
		return fmt.Errorf("query sessions: %w", err)
	}
	var quizzes, passed int
	for _, sess := range sessions {
		if voice.Mode(sess.Mode) != voice.ModeQuiz || !gate.Status(sess.Status).Terminal() {
			continue
		}
		quizzes++
		if sess.Status == string(gate.StatusPassed) {
			passed++
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Outcomes")
	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "Generations:  %d of %d succeeded (%s)\n",
		totals.Succeeded, totals.Attempts, percent(totals.Succeeded, totals.Attempts))
	fmt.Fprintf(w, "Quizzes:      %d of %d passed (%s)\n", passed, quizzes, percent(passed, quizzes))

	modelUsage, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		return fmt.Errorf("query model usage: %w", err)
	}
	if len(modelUsage) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Estimated Cost (USD)")
	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %10s\n",
		"Model", "Calls", "Input", "Output", "Cost")
	fmt.Fprintln(w, strings.Repeat("─", 72))

	var totalCost float64
	var unknownModels []string
	for _, mu := range modelUsage {
		cost := llm.LookupCost(mu.Model)
		if cost == nil {
			unknownModels = append(unknownModels, mu.Model)
			fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %10s\n",
				truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
			continue
		}
		c := cost.Cost(mu.InputTokens, mu.OutputTokens)
		totalCost += c
		fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %10s\n",
			truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
	}

	fmt.Fprintln(w, strings.Repeat("─", 72))
	label := "TOTAL"
	if len(unknownModels) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(totalCost))
	if totals.Succeeded > 0 {
		fmt.Fprintf(w, "Per working artifact: %s\n", formatCost(totalCost/float64(totals.Succeeded)))
	}
	if len(unknownModels) > 0 {
		fmt.Fprintf(w, "\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
	}
	return nil
}

func percent(n, of int) string {
	if of == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", n*100/of)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (generate, evaluate, question, review)")
	llmListCmd.Flags().Bool("failed", false, "Only show calls that returned an error")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
