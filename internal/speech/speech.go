// Package speech transcribes spoken feature descriptions with a hosted
// speech-to-text model.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when no transcription key is configured.
var ErrNoAPIKey = errors.New("speech: OPENAI_API_KEY is not set")

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Whisper uses the OpenAI transcription endpoint.
type Whisper struct {
	client *openai.Client
	model  string
}

// NewWhisper creates a Whisper transcriber. Empty model uses whisper-1;
// empty baseURL uses the public API.
func NewWhisper(apiKey, model, baseURL string) (*Whisper, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Transcribe sends audio once and returns the trimmed text. filename only
// tells the API the container format.
func (w *Whisper) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   audio,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", filename, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("transcribe %s: no speech recognized", filename)
	}
	return text, nil
}

// TranscribeFile opens path and transcribes it with t.
func TranscribeFile(ctx context.Context, t Transcriber, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return t.Transcribe(ctx, filepath.Base(path), f)
}
