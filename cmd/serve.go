package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/logx"
	"github.com/faitholopade/codegate/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generate-code endpoint for browser front ends",
	Long: `Serve POST /functions/v1/generate-code with the generate, evaluate and
question actions, so a browser client can use codegate without holding LLM
keys. Set CODEGATE_SERVER_TOKEN to require a bearer token.

--addr may be repeated to listen on several addresses; if any listener fails
the others are shut down.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringSlice("addr", nil, "Listen address (default from CODEGATE_SERVER_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	addrs, _ := cmd.Flags().GetStringSlice("addr")
	if len(addrs) == 0 {
		addrs = []string{cfg.Server.Addr}
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := newProvider(ctx, cfg, st.EventRepo())
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	svc := codegen.New(provider, codegen.DefaultConfig())
	log := logx.Named("server")

	g, gctx := errgroup.WithContext(ctx)
	for _, addr := range addrs {
		srv, err := server.New(server.Config{
			Addr:        addr,
			Token:       cfg.Server.Token,
			AllowOrigin: cfg.Server.AllowOrigin,
			Generator:   svc,
			Evaluator:   svc,
			Log:         log.With(zap.String("addr", addr)),
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			return srv.ListenAndServe(gctx)
		})
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s%s\n", addr, server.GenerateCodePath)
	}
	return g.Wait()
}
