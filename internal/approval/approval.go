// Package approval turns a final quiz score into an approval record and
// optionally notifies an external workflow.
package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/faitholopade/codegate/internal/gate"
	"github.com/faitholopade/codegate/internal/logx"
	"github.com/faitholopade/codegate/internal/store"
)

// Input is what a decision is made from.
type Input struct {
	SessionID string
	Code      string
	Language  string
	Score     int
}

// Record is the immutable outcome of a decision.
type Record struct {
	Approved bool
	// Reference points at the shipped change, e.g. a pull request URL.
	Reference string
	// Placeholder is true when Reference was made up locally and does not
	// exist anywhere.
	Placeholder bool
	Feedback    string
	// Notified is true when the webhook accepted the payload.
	Notified bool
}

// Recorder stores decisions. store.EventRepo satisfies it.
type Recorder interface {
	AppendApproval(ctx context.Context, data store.ApprovalEventData) error
}

// Options configures an Approver.
type Options struct {
	// WebhookURL is optional.
	WebhookURL string
	Timeout    time.Duration
	// Repo is "owner/name" for placeholder links.
	Repo     string
	Recorder Recorder
	Log      *zap.Logger
	Now      func() time.Time
	// PRNumber picks placeholder pull request numbers.
	PRNumber func() int
}

// Approver decides pass or fail. It never returns an error: webhook
// problems fall back to a local record.
type Approver struct {
	opts   Options
	client *http.Client
	log    *zap.Logger
}

// New creates an Approver.
func New(opts Options) *Approver {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Repo == "" {
		opts.Repo = "your-org/your-repo"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PRNumber == nil {
		opts.PRNumber = func() int { return rand.IntN(1000) + 1 }
	}
	log := opts.Log
	if log == nil {
		log = logx.Named("approval")
	}
	return &Approver{opts: opts, client: &http.Client{Timeout: opts.Timeout}, log: log}
}

// ApprovedFeedback and RejectedFeedback are the local verdict texts.
func ApprovedFeedback(score int) string {
	return fmt.Sprintf("Code approved with score %d/100. PR created successfully.", score)
}

func RejectedFeedback(score int) string {
	return fmt.Sprintf("Code blocked. Score %d/100 is below the %d%% threshold. Please review and try again.", score, gate.PassThreshold)
}

// Decide approves iff in.Score clears gate.PassThreshold.
func (a *Approver) Decide(ctx context.Context, in Input) Record {
	approved := gate.Passed(in.Score)

	rec, ok := a.notify(ctx, in, approved)
	if !ok {
		rec = a.local(in.Score, approved)
	}

	a.log.Info("approval decided",
		zap.Int("score", in.Score),
		zap.Bool("approved", rec.Approved),
		zap.Bool("notified", rec.Notified),
		zap.Bool("placeholder", rec.Placeholder))

	if a.opts.Recorder != nil {
		err := a.opts.Recorder.AppendApproval(context.WithoutCancel(ctx), store.ApprovalEventData{
			SessionID:   in.SessionID,
			Score:       in.Score,
			Approved:    rec.Approved,
			Reference:   rec.Reference,
			Placeholder: rec.Placeholder,
			Feedback:    rec.Feedback,
		})
		if err != nil {
			a.log.Warn("failed to record approval", zap.Error(err))
		}
	}
	return rec
}

func (a *Approver) local(score int, approved bool) Record {
	if !approved {
		return Record{Feedback: RejectedFeedback(score)}
	}
	return Record{
		Approved:    true,
		Reference:   a.placeholderURL(),
		Placeholder: true,
		Feedback:    ApprovedFeedback(score),
	}
}

func (a *Approver) placeholderURL() string {
	return fmt.Sprintf("https://github.com/%s/pull/%d", a.opts.Repo, a.opts.PRNumber())
}

type webhookPayload struct {
	Code      string `json:"code"`
	Language  string `json:"language"`
	Score     int    `json:"score"`
	Timestamp string `json:"timestamp"`
	Approved  bool   `json:"approved"`
}

type webhookReply struct {
	PRURL    string `json:"prUrl"`
	Feedback string `json:"feedback"`
}

// notify posts to the webhook once. ok is false when there is no webhook
// or the call failed in any way.
func (a *Approver) notify(ctx context.Context, in Input, approved bool) (Record, bool) {
	if a.opts.WebhookURL == "" {
		return Record{}, false
	}

	body, err := json.Marshal(webhookPayload{
		Code:      in.Code,
		Language:  in.Language,
		Score:     in.Score,
		Timestamp: a.opts.Now().UTC().Format(time.RFC3339Nano),
		Approved:  approved,
	})
	if err != nil {
		return Record{}, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.opts.WebhookURL, bytes.NewReader(body))
	if err != nil {
		a.log.Warn("approval webhook request", zap.Error(err))
		return Record{}, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("approval webhook failed", zap.Error(err))
		return Record{}, false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.log.Warn("approval webhook rejected", zap.Int("status", resp.StatusCode))
		return Record{}, false
	}

	var reply webhookReply
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &reply); err != nil {
			a.log.Debug("approval webhook reply is not JSON", zap.Error(err))
		}
	}

	rec := a.local(in.Score, approved)
	rec.Notified = true
	if fb := strings.TrimSpace(reply.Feedback); fb != "" {
		rec.Feedback = fb
	} else if approved {
		rec.Feedback = "Code approved and workflow triggered!"
	}
	if approved && reply.PRURL != "" {
		rec.Reference = reply.PRURL
		rec.Placeholder = false
	}
	return rec, true
}
