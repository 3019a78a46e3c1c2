package config

import (
	"errors"
	"strings"

	"github.com/faitholopade/codegate/internal/llm"
)

// ConfigurationError reports required settings that are absent. It is
// returned before any network activity.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing configuration: " + strings.Join(e.Missing, ", ")
}

// ErrAudioConversation is returned when a capture device is configured
// but the agent is left in audio mode. Sessions only carry typed text, so
// the agent would wait for a spoken turn that never arrives.
var ErrAudioConversation = errors.New(`microphone.device needs elevenlabs.text_only: set it to true or use microphone.device "none"`)

// CheckItem is one row of the setup checklist shown when codegate is not
// fully configured.
type CheckItem struct {
	Name        string
	Description string
	URL         string
	Required    bool
	Set         bool
}

// Checklist describes every credential codegate knows about.
func (c *Config) Checklist() []CheckItem {
	llmName, llmURL := llmCredential(c.LLM.Provider)
	return []CheckItem{
		{
			Name:        "ELEVENLABS_API_KEY",
			Description: "ElevenLabs API key",
			URL:         "https://elevenlabs.io",
			Required:    true,
			Set:         c.ElevenLabs.APIKey != "",
		},
		{
			Name:        "ELEVENLABS_AGENT_ID",
			Description: "Conversational AI agent ID",
			URL:         "https://elevenlabs.io/conversational-ai",
			Required:    true,
			Set:         c.ElevenLabs.AgentID != "",
		},
		{
			Name:        llmName,
			Description: "Code generation model key",
			URL:         llmURL,
			Required:    c.LLM.Provider != llm.ProviderMock,
			Set:         c.LLM.Provider == llm.ProviderMock || c.LLM.APIKey() != "",
		},
		{
			Name:        "N8N_WEBHOOK_URL",
			Description: "Approval webhook (optional)",
			URL:         "https://n8n.io",
			Set:         c.Webhook.URL != "",
		},
	}
}

// Missing returns the names of unset required settings, in checklist
// order.
func (c *Config) Missing() []string {
	var out []string
	for _, item := range c.Checklist() {
		if item.Required && !item.Set {
			out = append(out, item.Name)
		}
	}
	return out
}

// Check returns a *ConfigurationError when anything required is missing.
func (c *Config) Check() error {
	if missing := c.Missing(); len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// CheckVoice is Check restricted to the ElevenLabs settings. Sessions only
// need these. A capture device without text mode is ErrAudioConversation.
func (c *Config) CheckVoice() error {
	var missing []string
	if c.ElevenLabs.APIKey == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	if c.ElevenLabs.AgentID == "" {
		missing = append(missing, "ELEVENLABS_AGENT_ID")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	if !c.ElevenLabs.TextOnly && c.Microphone.Device != "" && c.Microphone.Device != "none" {
		return ErrAudioConversation
	}
	return nil
}

func llmCredential(provider string) (string, string) {
	switch provider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY", "https://platform.openai.com/api-keys"
	case llm.ProviderGemini:
		return "GEMINI_API_KEY", "https://aistudio.google.com/apikey"
	case llm.ProviderGateway:
		return "LOVABLE_API_KEY", "https://lovable.dev"
	default:
		return "ANTHROPIC_API_KEY", "https://console.anthropic.com"
	}
}
