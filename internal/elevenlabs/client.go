// Package elevenlabs is the transport for ElevenLabs Conversational AI:
// the signed-URL handshake over HTTPS and the conversation websocket.
package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://api.elevenlabs.io"

// APIError is a non-2xx handshake response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("elevenlabs: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("elevenlabs: HTTP %d: %s", e.StatusCode, e.Body)
}

// NotFound reports a 404, which the API returns for an unknown agent.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Client performs the signed-URL handshake.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a Client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SignedURL exchanges the API key for a short-lived conversation URL.
func (c *Client) SignedURL(ctx context.Context, agentID string) (string, error) {
	endpoint := c.baseURL + "/v1/convai/conversation/get-signed-url?agent_id=" + url.QueryEscape(agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode signed url: %w", err)
	}
	if out.SignedURL == "" {
		return "", errors.New("elevenlabs: empty signed_url")
	}
	return out.SignedURL, nil
}
