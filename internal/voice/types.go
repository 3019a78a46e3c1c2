// Package voice runs one conversation with a hosted voice agent at a time.
// It normalizes the agent's events into a transcript, keeps the quiz score
// and drives the review gate from connection callbacks.
package voice

import (
	"context"
	"time"
)

// Mode selects the conversation flavour.
type Mode string

const (
	// ModeQuiz asks comprehension questions and keeps a score.
	ModeQuiz Mode = "quiz"
	// ModeTutor lectures on one topic and carries no score.
	ModeTutor Mode = "tutor"
)

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// TranscriptEntry is one normalized utterance.
type TranscriptEntry struct {
	ID        string
	Speaker   Speaker
	Text      string
	CreatedAt time.Time
	// Synthetic marks entries written locally (status and error notes)
	// rather than received from the agent.
	Synthetic bool
}

// Phase is the connection phase of the current session.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseConnected
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// SeedScore is the quiz score at session start.
const SeedScore = 50

// Handler receives the four transport callbacks. The transport may call it
// from any goroutine.
type Handler interface {
	OnConnected()
	OnDisconnected()
	OnMessage(raw []byte)
	OnError(err error)
}

// Init seeds a new conversation.
type Init struct {
	// Prompt replaces the agent's system prompt.
	Prompt string
	// FirstMessage replaces the agent's opening line when non-empty.
	FirstMessage string
}

// Microphone asks for capture permission.
type Microphone interface {
	Request(ctx context.Context) error
}

// MicrophoneFunc adapts a function to Microphone.
type MicrophoneFunc func(ctx context.Context) error

func (f MicrophoneFunc) Request(ctx context.Context) error { return f(ctx) }

// Handshaker exchanges credentials for a short-lived session URL.
type Handshaker interface {
	SignedURL(ctx context.Context, agentID string) (string, error)
}

// Dialer opens the conversation channel. It returns once the channel is
// open; OnConnected follows when the remote side confirms the session.
type Dialer interface {
	Dial(ctx context.Context, url string, init Init, h Handler) (Conn, error)
}

// Conn is an open conversation channel.
type Conn interface {
	// SendText sends a typed user message.
	SendText(ctx context.Context, text string) error
	// Close ends the conversation. It is safe to call more than once.
	Close() error
}

// Snapshot is a copy of the session state for rendering.
type Snapshot struct {
	SessionID  string
	Mode       Mode
	Topic      string
	Phase      Phase
	Score      int
	Scored     bool
	Transcript []TranscriptEntry
	LastError  error
}

// Outcome is reported when a quiz session ends while active.
type Outcome struct {
	SessionID string
	Score     int
	Passed    bool
}
