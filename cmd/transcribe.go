package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faitholopade/codegate/internal/speech"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio>",
	Short: "Transcribe a recorded feature description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		w, err := speech.NewWhisper(cfg.Speech.APIKey, cfg.Speech.Model, "")
		if err != nil {
			return err
		}
		text, err := speech.TranscribeFile(cmd.Context(), w, args[0])
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}
