package voice

import (
	"encoding/json"
	"strings"
)

// inbound covers every event shape the agent has been seen to emit.
// Text-bearing fields are raw so a non-string value degrades to "absent"
// instead of failing the whole decode.
type inbound struct {
	Type   string          `json:"type"`
	Text   json.RawMessage `json:"text"`
	Source json.RawMessage `json:"source"`
	// Message is the fallback text field on typed events and the payload
	// of {source, message} pairs.
	Message json.RawMessage `json:"message"`

	UserTranscription *struct {
		UserTranscript json.RawMessage `json:"user_transcript"`
	} `json:"user_transcription_event"`
	AgentResponse *struct {
		AgentResponse json.RawMessage `json:"agent_response"`
	} `json:"agent_response_event"`
}

// Normalize maps one raw event to a speaker and text. ok is false for
// unknown shapes and for events without text.
func Normalize(raw []byte) (speaker Speaker, text string, ok bool) {
	var ev inbound
	if err := json.Unmarshal(raw, &ev); err != nil {
		return "", "", false
	}

	switch ev.Type {
	case "user_transcript", "transcript":
		var nested json.RawMessage
		if ev.UserTranscription != nil {
			nested = ev.UserTranscription.UserTranscript
		}
		text = firstString(nested, ev.Text, ev.Message)
		speaker = SpeakerUser
	case "agent_response":
		var nested json.RawMessage
		if ev.AgentResponse != nil {
			nested = ev.AgentResponse.AgentResponse
		}
		text = firstString(nested, ev.Text, ev.Message)
		speaker = SpeakerAgent
	default:
		source := str(ev.Source)
		text = str(ev.Message)
		if source == "" || text == "" {
			return "", "", false
		}
		speaker = SpeakerUser
		if source == "ai" {
			speaker = SpeakerAgent
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false
	}
	return speaker, text, true
}

func firstString(fields ...json.RawMessage) string {
	for _, f := range fields {
		if s := str(f); s != "" {
			return s
		}
	}
	return ""
}

func str(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
