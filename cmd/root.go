package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/llm"
	"github.com/faitholopade/codegate/internal/logx"
	"github.com/faitholopade/codegate/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "codegate",
	Short: "Quiz developers on generated code before it ships",
	Long: `codegate generates code from a feature description, then holds a voice or
text conversation that checks you understand it. Code is approved only when
the quiz score reaches the pass mark.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logx.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CODEGATE_DB env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Dotenv file to read (default ./.env)")
	rootCmd.PersistentFlags().String("config", "", "YAML config file (default codegate.yaml in the user config dir)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (default in the user cache dir; \"-\" for stderr)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration named by the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.Options{ConfigFile: cfgFile, EnvFile: envFile})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the process logger. Flags beat the configuration.
func setupLogger(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := cfg.Log.File
	if p, _ := cmd.Flags().GetString("log-file"); p != "" {
		path = p
	}
	switch path {
	case "":
		path = logx.DefaultPath()
	case "-":
		path = ""
	}
	level := cfg.Log.Level
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		level = l
	}

	l, err := logx.New(path, level)
	if err != nil {
		return err
	}
	logx.Set(l.With(zap.String("cmd", cmd.Name())))
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (CODEGATE_DB), then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore opens the audit database.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newProvider builds the configured LLM provider. recorder may be nil.
func newProvider(ctx context.Context, cfg *config.Config, recorder llm.LLMEventRecorder) (llm.Provider, error) {
	return llm.NewProvider(ctx, cfg.LLM, recorder, logx.Named("llm"))
}
