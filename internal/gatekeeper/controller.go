// Package gatekeeper runs the review workflow: generate code, quiz the
// developer about it, then approve or block it.
package gatekeeper

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/faitholopade/codegate/internal/approval"
	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/gate"
	"github.com/faitholopade/codegate/internal/logx"
	"github.com/faitholopade/codegate/internal/store"
	"github.com/faitholopade/codegate/internal/topics"
	"github.com/faitholopade/codegate/internal/voice"
)

// GenerationRecorder receives generation attempts. store.EventRepo
// satisfies it.
type GenerationRecorder interface {
	AppendGeneration(ctx context.Context, data store.GenerationEventData) error
}

// Options wires a Controller. Voice.Gate and Voice.OnOutcome are owned by
// the controller and overwritten.
type Options struct {
	Generator codegen.Generator
	Voice     voice.Options
	Approver  *approval.Approver
	// Reviewer is optional; without it Review returns the static summary.
	Reviewer *approval.Reviewer
	Recorder GenerationRecorder
	Log      *zap.Logger
}

// State is a point-in-time copy of everything the UI renders.
type State struct {
	Status   gate.Status
	Prompt   string
	Artifact *codegen.Artifact
	Topics   []string
	Session  voice.Snapshot
	// Approval is set once a quiz reached a verdict.
	Approval *approval.Record
}

// Controller owns one gate machine and one session manager.
type Controller struct {
	gen      codegen.Generator
	gate     *gate.Machine
	sessions *voice.Manager
	approver *approval.Approver
	reviewer *approval.Reviewer
	recorder GenerationRecorder
	log      *zap.Logger

	mu       sync.Mutex
	approval *approval.Record
}

// New creates a Controller.
func New(opts Options) *Controller {
	log := opts.Log
	if log == nil {
		log = logx.Named("gatekeeper")
	}
	if opts.Approver == nil {
		opts.Approver = approval.New(approval.Options{Log: log})
	}
	if opts.Reviewer == nil {
		opts.Reviewer = approval.NewReviewer(nil)
	}

	c := &Controller{
		gen:      opts.Generator,
		gate:     gate.NewMachine(),
		approver: opts.Approver,
		reviewer: opts.Reviewer,
		recorder: opts.Recorder,
		log:      log,
	}
	c.gate.Observe(func(t gate.Transition) {
		c.log.Debug("gate transition",
			zap.String("from", string(t.From)),
			zap.String("to", string(t.To)),
			zap.String("trigger", t.Trigger))
	})

	vopts := opts.Voice
	vopts.Gate = c.gate
	vopts.OnOutcome = c.decide
	if vopts.Log == nil {
		vopts.Log = log.Named("voice")
	}
	c.sessions = voice.NewManager(vopts)
	return c
}

// Gate returns the status machine.
func (c *Controller) Gate() *gate.Machine { return c.gate }

// Sessions returns the session manager.
func (c *Controller) Sessions() *voice.Manager { return c.sessions }

// Changes signals session progress, including the approval verdict.
func (c *Controller) Changes() <-chan struct{} { return c.sessions.Changes() }

// State returns a snapshot for rendering.
func (c *Controller) State() State {
	st := State{
		Status:   c.gate.Status(),
		Prompt:   c.gate.Prompt(),
		Artifact: c.gate.Artifact(),
		Session:  c.sessions.Snapshot(),
	}
	if st.Artifact != nil {
		st.Topics = topics.Extract(st.Artifact.Source)
	}
	c.mu.Lock()
	st.Approval = c.approval
	c.mu.Unlock()
	return st
}

// Generate requests a new artifact. A previous verdict is discarded first.
// On failure the gate returns to idle and the error is returned.
func (c *Controller) Generate(ctx context.Context, prompt string) (*codegen.Artifact, error) {
	if c.sessions.Active() {
		return nil, voice.ErrSessionActive
	}
	if c.gate.Status().Terminal() {
		if err := c.reset(); err != nil {
			return nil, err
		}
	}
	if err := c.gate.BeginGeneration(prompt); err != nil {
		return nil, err
	}
	c.clearApproval()

	a, err := c.gen.Generate(ctx, prompt)
	c.recordGeneration(ctx, prompt, a, err)
	if err != nil {
		c.log.Warn("generation failed", zap.Error(err))
		if ferr := c.gate.Fail(); ferr != nil {
			c.log.Warn("gate refused failure", zap.Error(ferr))
		}
		return nil, err
	}
	if err := c.gate.Complete(a); err != nil {
		return nil, err
	}
	c.log.Info("artifact ready", zap.String("language", a.Language), zap.Int("blocks", len(a.Segments)))
	return a, nil
}

// StartQuiz opens a quiz session on the current artifact.
func (c *Controller) StartQuiz(ctx context.Context) error {
	c.clearApproval()
	return c.sessions.Start(ctx, c.gate.Artifact(), voice.ModeQuiz, "")
}

// StartTutor opens a tutoring session on one topic of the current
// artifact, or a free-form one when there is no artifact.
func (c *Controller) StartTutor(ctx context.Context, topic string) error {
	return c.sessions.Start(ctx, c.gate.Artifact(), voice.ModeTutor, topic)
}

// EndSession closes the open session. A quiz that was connected reaches
// its verdict before this returns.
func (c *Controller) EndSession(ctx context.Context) error {
	return c.sessions.End(ctx)
}

// Send types a message into the open session.
func (c *Controller) Send(ctx context.Context, text string) error {
	return c.sessions.Send(ctx, text)
}

// Approval returns the last verdict, or nil.
func (c *Controller) Approval() *approval.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.approval
}

// Review summarizes the current artifact. A model failure still yields
// the static summary alongside the error.
func (c *Controller) Review(ctx context.Context) (string, error) {
	a := c.gate.Artifact()
	if a == nil {
		return "", voice.ErrNoArtifact
	}
	return c.reviewer.Review(ctx, a.Source, a.Language)
}

// Reset ends any session and returns to idle.
func (c *Controller) Reset(ctx context.Context) error {
	if err := c.sessions.End(ctx); err != nil {
		c.log.Warn("closing session on reset", zap.Error(err))
	}
	return c.reset()
}

func (c *Controller) reset() error {
	if err := c.gate.Reset(); err != nil {
		return err
	}
	c.clearApproval()
	return nil
}

func (c *Controller) clearApproval() {
	c.mu.Lock()
	c.approval = nil
	c.mu.Unlock()
}

// decide runs when a connected quiz disconnects.
func (c *Controller) decide(o voice.Outcome) {
	in := approval.Input{SessionID: o.SessionID, Score: o.Score}
	if a := c.gate.Artifact(); a != nil {
		in.Code, in.Language = a.Source, a.Language
	}
	rec := c.approver.Decide(context.Background(), in)

	c.mu.Lock()
	c.approval = &rec
	c.mu.Unlock()
}

func (c *Controller) recordGeneration(ctx context.Context, prompt string, a *codegen.Artifact, err error) {
	if c.recorder == nil {
		return
	}
	data := store.GenerationEventData{Prompt: prompt, Success: err == nil}
	if err != nil {
		data.ErrorMessage = err.Error()
	} else {
		data.Language = a.Language
		data.Segments = len(a.Segments)
	}
	if rerr := c.recorder.AppendGeneration(context.WithoutCancel(ctx), data); rerr != nil {
		c.log.Warn("failed to record generation", zap.Error(rerr))
	}
}
