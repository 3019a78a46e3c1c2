package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect recorded quiz and tutoring sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sessions, err := s.EventRepo().ListSessions(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-5s  %-24s  %-7s  %5s  %s\n",
			"Session", "Started", "Mode", "Topic", "Status", "Score", "Entries")
		fmt.Println(strings.Repeat("─", 116))
		for _, sess := range sessions {
			status := sess.Status
			if status == "" {
				status = "-"
			}
			fmt.Printf("%-36s  %-19s  %-5s  %-24s  %-7s  %5d  %d\n",
				sess.SessionID,
				sess.StartedAt.Local().Format("2006-01-02 15:04:05"),
				sess.Mode,
				truncate(sess.Topic, 24),
				status,
				sess.Score,
				sess.Entries,
			)
		}
		return nil
	},
}

var sessionsViewCmd = &cobra.Command{
	Use:   "view <session-id>",
	Short: "Show a session's lifecycle events and transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		events, err := s.EventRepo().SessionEvents(ctx, id)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			return fmt.Errorf("session %s not found", id)
		}
		entries, err := s.EventRepo().Transcript(ctx, id)
		if err != nil {
			return fmt.Errorf("query transcript: %w", err)
		}

		sep := strings.Repeat("─", 60)
		first := events[0]
		fmt.Printf("Session:   %s\n", id)
		fmt.Printf("Mode:      %s\n", first.Mode)
		if first.Topic != "" {
			fmt.Printf("Topic:     %s\n", first.Topic)
		}

		fmt.Println()
		fmt.Println(sep)
		fmt.Println("EVENTS")
		fmt.Println(sep)
		for _, e := range events {
			line := fmt.Sprintf("%s  %-8s score %3d", e.Timestamp.Local().Format("15:04:05"), e.Action, e.Score)
			if e.Status != "" {
				line += "  " + e.Status
			}
			if e.Detail != "" {
				line += "  " + e.Detail
			}
			fmt.Println(line)
		}

		fmt.Println(sep)
		fmt.Println("TRANSCRIPT")
		fmt.Println(sep)
		if len(entries) == 0 {
			fmt.Println("(empty)")
		}
		for _, e := range entries {
			speaker := "Agent"
			if e.Speaker == "user" {
				speaker = "You"
			}
			if e.Synthetic {
				speaker += "*"
			}
			fmt.Printf("%s  %-6s %s\n", e.Timestamp.Local().Format("15:04:05"), speaker, e.Text)
		}
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsViewCmd)
}
