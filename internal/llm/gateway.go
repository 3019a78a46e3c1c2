package llm

import "fmt"

// DefaultGatewayBaseURL is the Lovable AI gateway's OpenAI-compatible root.
const DefaultGatewayBaseURL = "https://ai.gateway.lovable.dev/v1"

// GatewayProvider targets an OpenAI-compatible AI gateway. Gateways route
// to many upstream models, not all of which accept strict json_schema, so
// structured requests go out in JSON-object mode.
type GatewayProvider struct {
	*OpenAIProvider
}

// NewGatewayProvider creates a provider for an AI gateway.
func NewGatewayProvider(cfg GatewayConfig) (*GatewayProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gateway API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGatewayBaseURL
	}

	inner, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	})
	if err != nil {
		return nil, err
	}
	inner.looseJSON = true

	return &GatewayProvider{OpenAIProvider: inner}, nil
}
