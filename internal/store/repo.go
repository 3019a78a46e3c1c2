package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // LLM events only
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
	Succeeded    int
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// GenerationEventData records one code-generation attempt.
type GenerationEventData struct {
	Prompt       string
	Language     string
	Segments     int
	Success      bool
	ErrorMessage string
}

// GenerationEvent is a stored generation attempt.
type GenerationEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	GenerationEventData
}

// GenerationTotals counts generation attempts.
type GenerationTotals struct {
	Attempts  int
	Succeeded int
}

// SessionEventData records a lifecycle change of a conversational session.
// Action is one of "start", "start-failed", "connected", "end", "error".
type SessionEventData struct {
	SessionID string
	Mode      string
	Action    string
	Topic     string
	Score     int
	Status    string
	Detail    string
}

// SessionEvent is a stored session lifecycle event.
type SessionEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	SessionEventData
}

// TranscriptEventData records one transcript entry as it was appended.
type TranscriptEventData struct {
	SessionID string
	EntryID   string
	Speaker   string
	Text      string
	Synthetic bool
	Score     int // score after the entry was applied
}

// TranscriptEvent is a stored transcript entry.
type TranscriptEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	TranscriptEventData
}

// ApprovalEventData records an approval decision.
type ApprovalEventData struct {
	SessionID   string
	Score       int
	Approved    bool
	Reference   string
	Placeholder bool
	Feedback    string
}

// SessionSummary is one row of the session history.
type SessionSummary struct {
	SessionID  string
	Mode       string
	Topic      string
	StartedAt  time.Time
	LastAction string
	Status     string
	Score      int
	Entries    int
}

// EventRepo provides append and query access to audit events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	// GetLLMEvent returns nil, nil when the id is unknown.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	AppendGeneration(ctx context.Context, data GenerationEventData) error
	GenerationsAfter(ctx context.Context, seq int64, limit int) ([]GenerationEvent, error)
	// LastGeneration returns nil, nil when no attempt before seq succeeded.
	LastGeneration(ctx context.Context, before int64) (*GenerationEvent, error)
	GenerationTotals(ctx context.Context) (GenerationTotals, error)
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	AppendTranscript(ctx context.Context, data TranscriptEventData) error
	AppendApproval(ctx context.Context, data ApprovalEventData) error

	// ListSessions returns sessions newest first.
	ListSessions(ctx context.Context, limit int) ([]SessionSummary, error)
	SessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error)
	Transcript(ctx context.Context, sessionID string) ([]TranscriptEvent, error)
}
