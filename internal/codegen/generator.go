package codegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/faitholopade/codegate/internal/llm"
)

// ErrEmptyPrompt is wrapped in a GenerationError when the feature
// description is blank.
var ErrEmptyPrompt = errors.New("feature description is empty")

// passMark is the evaluation pass line; it matches gate.PassThreshold.
const passMark = 70

// Generator produces artifacts.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Artifact, error)
}

// Evaluator grades explanations and proposes questions.
type Evaluator interface {
	Evaluate(ctx context.Context, in EvaluateInput) (*Evaluation, error)
	SuggestQuestion(ctx context.Context, code, explanation string) (string, error)
}

// Service implements Generator and Evaluator on an llm.Provider.
type Service struct {
	provider llm.Provider
	config   Config
}

// New creates a Service.
func New(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, config: cfg}
}

// Generate asks the model for an artifact. Every failure, including a
// well-formed but unusable payload, is a *GenerationError.
func (s *Service) Generate(ctx context.Context, prompt string) (*Artifact, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &GenerationError{Stage: "request", Err: ErrEmptyPrompt}
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeGenerate)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      generateSystemPrompt,
		Messages:    llm.UserMessage(buildGenerateMessage(prompt)),
		Schema:      ArtifactSchema,
		MaxTokens:   s.config.GenerateMaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			return nil, &GenerationError{Stage: "parse", Err: err}
		}
		return nil, &GenerationError{Stage: "request", Err: err}
	}

	var raw Artifact
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &GenerationError{Stage: "parse", Err: err}
	}

	a, err := normalize(raw)
	if err != nil {
		return nil, &GenerationError{Stage: "validate", Err: err}
	}
	return a, nil
}

// normalize fills blank segment ids as block_<n>, defaults the language
// and rejects artifacts that cannot drive a quiz.
func normalize(raw Artifact) (*Artifact, error) {
	if strings.TrimSpace(raw.Source) == "" {
		return nil, errors.New("empty source")
	}
	if len(raw.Segments) == 0 {
		return nil, errors.New("no code blocks")
	}

	a := &Artifact{
		Source:   raw.Source,
		Language: strings.ToLower(strings.TrimSpace(raw.Language)),
		Segments: make([]Segment, len(raw.Segments)),
	}
	if a.Language == "" {
		a.Language = DefaultLanguage
	}

	seen := make(map[string]bool, len(raw.Segments))
	for i, seg := range raw.Segments {
		seg.ID = strings.TrimSpace(seg.ID)
		if seg.ID == "" {
			seg.ID = fmt.Sprintf("block_%d", i+1)
		}
		if seen[seg.ID] {
			return nil, fmt.Errorf("duplicate block id %q", seg.ID)
		}
		seen[seg.ID] = true
		a.Segments[i] = seg
	}
	return a, nil
}

// Evaluate grades a developer's explanation of code.
func (s *Service) Evaluate(ctx context.Context, in EvaluateInput) (*Evaluation, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluate)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      evaluateSystemPrompt,
		Messages:    llm.UserMessage(buildEvaluateMessage(in)),
		Schema:      EvaluationSchema,
		MaxTokens:   s.config.EvaluateMaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	var ev Evaluation
	if err := json.Unmarshal(resp.Content, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse evaluation: %w", err)
	}
	ev.Score = min(max(ev.Score, 0), 100)
	ev.Passed = ev.Score >= passMark
	return &ev, nil
}

// SuggestQuestion asks for one comprehension question about a block.
func (s *Service) SuggestQuestion(ctx context.Context, code, explanation string) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestion)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      questionSystemPrompt,
		Messages:    llm.UserMessage(buildQuestionMessage(code, explanation)),
		MaxTokens:   s.config.QuestionMaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("question generation failed: %w", err)
	}

	q := strings.TrimSpace(resp.Text())
	if q == "" {
		return "", &llm.ErrInvalidResponse{Content: resp.Content, Err: errors.New("empty question")}
	}
	return q, nil
}
