package voice

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionActive is returned by Start while another session is open.
	ErrSessionActive = errors.New("a voice session is already active")
	// ErrNotConnected is returned by Send without a connected session.
	ErrNotConnected = errors.New("no connected voice session")
	// ErrNoArtifact is returned when a quiz is started without code.
	ErrNoArtifact = errors.New("generate code before starting a quiz")
)

// SelectionError means a tutor session needs a topic from Available.
type SelectionError struct {
	Topic     string
	Available []string
}

func (e *SelectionError) Error() string {
	if e.Topic == "" {
		return "select a topic first: " + strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("unknown topic %q; choose one of: %s", e.Topic, strings.Join(e.Available, ", "))
}

// PermissionError means microphone access was denied or unavailable.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone permission denied: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// HandshakeError means the session could not be set up.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("Failed to connect to ElevenLabs: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// InvalidAgentError means the configured agent does not exist.
type InvalidAgentError struct {
	AgentID string
	Err     error
}

func (e *InvalidAgentError) Error() string {
	return "Invalid Agent ID. Create an agent at elevenlabs.io/app/conversational-ai and update ELEVENLABS_AGENT_ID"
}

func (e *InvalidAgentError) Unwrap() error { return e.Err }

// TransportError is a failure reported by an open channel.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Error: %v. Make sure your ElevenLabs agent has \"Override\" enabled in the agent settings.", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// notFound is implemented by handshake errors for a missing agent.
type notFound interface {
	NotFound() bool
}

func classifyHandshake(agentID string, err error) error {
	var nf notFound
	if errors.As(err, &nf) && nf.NotFound() {
		return &InvalidAgentError{AgentID: agentID, Err: err}
	}
	return &HandshakeError{Err: err}
}
