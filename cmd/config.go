package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show which settings are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		for _, item := range cfg.Checklist() {
			mark := "✓"
			switch {
			case !item.Set && item.Required:
				mark = "✗"
			case !item.Set:
				mark = "○"
			}
			fmt.Printf("%s %-22s %s", mark, item.Name, item.Description)
			if !item.Set && item.URL != "" {
				fmt.Printf("  (%s)", item.URL)
			}
			fmt.Println()
		}

		fmt.Println()
		fmt.Printf("LLM provider:  %s\n", cfg.LLM.Provider)
		fmt.Printf("Microphone:    %s\n", cfg.Microphone.Device)
		fmt.Printf("Server:        %s\n", cfg.Server.Addr)
		if len(cfg.Sources) > 0 {
			fmt.Println("Read from:")
			for _, src := range cfg.Sources {
				fmt.Printf("  %s\n", src)
			}
		}

		return cfg.Check()
	},
}
