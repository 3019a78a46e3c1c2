package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/faitholopade/codegate/internal/app"
	"github.com/faitholopade/codegate/internal/approval"
	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/elevenlabs"
	"github.com/faitholopade/codegate/internal/gatekeeper"
	"github.com/faitholopade/codegate/internal/logx"
	"github.com/faitholopade/codegate/internal/mic"
	"github.com/faitholopade/codegate/internal/store"
	"github.com/faitholopade/codegate/internal/voice"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	eventRepo := st.EventRepo()
	ctrl := buildController(ctx, cfg, eventRepo)

	return app.Run(app.Options{
		Controller: ctrl,
		Checklist:  cfg.Checklist(),
		EventRepo:  eventRepo,
	})
}

// unavailableGenerator fails every request with the reason the LLM
// provider could not be built. The rest of the app still works.
type unavailableGenerator struct {
	err error
}

func (g unavailableGenerator) Generate(context.Context, string) (*codegen.Artifact, error) {
	return nil, g.err
}

// buildController wires the review workflow from configuration.
func buildController(ctx context.Context, cfg *config.Config, eventRepo store.EventRepo) *gatekeeper.Controller {
	log := logx.Named("gatekeeper")

	var generator codegen.Generator
	reviewer := approval.NewReviewer(nil)
	provider, err := newProvider(ctx, cfg, eventRepo)
	if err != nil {
		log.Warn("LLM provider not configured; generation unavailable", zap.Error(err))
		generator = unavailableGenerator{err: fmt.Errorf("code generation unavailable: %w", err)}
	} else {
		generator = codegen.New(provider, codegen.DefaultConfig())
		reviewer = approval.NewReviewer(provider)
	}

	approver := approval.New(approval.Options{
		WebhookURL: cfg.Webhook.URL,
		Timeout:    cfg.Webhook.Timeout,
		Repo:       cfg.Approval.Repo,
		Recorder:   eventRepo,
		Log:        logx.Named("approval"),
	})

	return gatekeeper.New(gatekeeper.Options{
		Generator: generator,
		Voice: voice.Options{
			AgentID:    cfg.ElevenLabs.AgentID,
			Check:      cfg.CheckVoice,
			Microphone: mic.New(cfg.Microphone.Device),
			Handshaker: elevenlabs.NewClient(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.BaseURL),
			Dialer:     elevenlabs.NewDialer(cfg.ElevenLabs.TextOnly, logx.Named("elevenlabs")),
			Scorer:     voice.NewScorer(cfg.Scoring.Positive, cfg.Scoring.Negative),
			Recorder:   eventRepo,
		},
		Approver: approver,
		Reviewer: reviewer,
		Recorder: eventRepo,
		Log:      log,
	})
}
