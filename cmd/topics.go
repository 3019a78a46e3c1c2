package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/faitholopade/codegate/internal/topics"
)

var topicsCmd = &cobra.Command{
	Use:   "topics <file|->",
	Short: "List the tutoring topics detected in a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src []byte
		var err error
		if args[0] == "-" {
			src, err = io.ReadAll(cmd.InOrStdin())
		} else {
			src, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, t := range topics.Extract(string(src)) {
			fmt.Fprintln(out, t)
		}
		return nil
	},
}
