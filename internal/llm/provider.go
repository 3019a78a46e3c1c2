package llm

import (
	"context"
	"encoding/json"
)

// Provider is the single seam between codegate and a hosted model.
type Provider interface {
	// Generate sends one request and returns the model output. When
	// req.Schema is set the provider asks for native structured output and
	// Content holds JSON that already passed schema validation.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System sets the model's role and output rules.
	System string

	// Messages is the conversation so far. Code generation and grading are
	// single-turn, so this is usually one user message.
	Messages []Message

	// Schema, when set, is the JSON Schema the response must satisfy.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserMessage is shorthand for a single user turn.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies the schema to the provider and keys the compiled
	// validator cache. Kebab-case, e.g. "code-artifact".
	Name string

	Description string

	// Definition is the JSON Schema document as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Content is validated JSON for schema requests and the model's raw
	// text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns Content as plain text, decoding it first when the provider
// returned a JSON string literal.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var s string
	if len(r.Content) > 0 && r.Content[0] == '"' && json.Unmarshal(r.Content, &s) == nil {
		return s
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
