package codegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/faitholopade/codegate/internal/llm"
)

func artifactJSON(blocks ...map[string]any) llm.MockResponse {
	items := make([]any, len(blocks))
	for i, b := range blocks {
		items[i] = b
	}
	return llm.MockJSON(map[string]any{
		"code":     "export function limit() {}\n",
		"language": "TypeScript",
		"blocks":   items,
	})
}

func block(id string) map[string]any {
	return map[string]any{
		"id":          id,
		"code":        "export function limit() {}",
		"explanation": "Declares the limiter.",
		"question":    "What happens when the bucket is empty?",
	}
}

func TestGenerateSuccess(t *testing.T) {
	mock := llm.NewMockProvider(artifactJSON(block("block_1"), block(""), block("tail")))
	svc := New(mock, DefaultConfig())

	a, err := svc.Generate(context.Background(), "rate limiter middleware")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.Language != "typescript" {
		t.Errorf("Language = %q, want typescript", a.Language)
	}
	ids := []string{a.Segments[0].ID, a.Segments[1].ID, a.Segments[2].ID}
	if strings.Join(ids, ",") != "block_1,block_2,tail" {
		t.Errorf("ids = %v", ids)
	}
	if a.LineCount() != 1 {
		t.Errorf("LineCount = %d, want 1", a.LineCount())
	}
	if _, ok := a.Segment("tail"); !ok {
		t.Error("Segment(tail) not found")
	}

	req := mock.Calls[0]
	if req.Schema != ArtifactSchema {
		t.Error("expected ArtifactSchema on request")
	}
	if !strings.Contains(req.Messages[0].Content, "rate limiter middleware") {
		t.Errorf("prompt not forwarded: %q", req.Messages[0].Content)
	}
}

func TestGenerateDefaultLanguage(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{
		"code":     "x",
		"language": "  ",
		"blocks":   []any{block("a")},
	}))
	a, err := New(mock, DefaultConfig()).Generate(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if a.Language != DefaultLanguage {
		t.Errorf("Language = %q, want %q", a.Language, DefaultLanguage)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name  string
		resp  llm.MockResponse
		stage string
	}{
		{"upstream", llm.MockResponse{Err: &llm.ErrRateLimit{}}, "request"},
		{"schema", llm.MockResponse{Content: []byte(`{"code":"x"}`)}, "parse"},
		{"no blocks", llm.MockJSON(map[string]any{"code": "x", "language": "go", "blocks": []any{}}), "parse"},
		{"empty source", artifactJSONWithSource("   "), "validate"},
		{"duplicate ids", artifactJSON(block("a"), block("a")), "validate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(llm.NewMockProvider(tt.resp), DefaultConfig())
			a, err := svc.Generate(context.Background(), "feature")
			if a != nil {
				t.Fatal("expected no artifact")
			}
			var gerr *GenerationError
			if !errors.As(err, &gerr) {
				t.Fatalf("expected *GenerationError, got %T: %v", err, err)
			}
			if gerr.Stage != tt.stage {
				t.Errorf("Stage = %q, want %q", gerr.Stage, tt.stage)
			}
		})
	}
}

func artifactJSONWithSource(src string) llm.MockResponse {
	return llm.MockJSON(map[string]any{
		"code":     src,
		"language": "go",
		"blocks":   []any{block("a")},
	})
}

func TestGenerateEmptyPromptMakesNoCall(t *testing.T) {
	mock := llm.NewMockProvider()
	_, err := New(mock, DefaultConfig()).Generate(context.Background(), "  \n")
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
	if mock.CallCount() != 0 {
		t.Errorf("CallCount = %d, want 0", mock.CallCount())
	}
}

func TestGenerateRateLimitUnwraps(t *testing.T) {
	svc := New(llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}}), DefaultConfig())
	_, err := svc.Generate(context.Background(), "x")
	var rl *llm.ErrRateLimit
	if !errors.As(err, &rl) {
		t.Errorf("expected ErrRateLimit through GenerationError, got %v", err)
	}
}

func TestEvaluateRecomputesPassed(t *testing.T) {
	tests := []struct {
		score, want int
		passed      bool
	}{
		{70, 70, true},
		{69, 69, false},
		{100, 100, true},
	}
	for _, tt := range tests {
		mock := llm.NewMockProvider(llm.MockJSON(map[string]any{
			"score": tt.score, "feedback": "ok", "passed": !tt.passed,
		}))
		ev, err := New(mock, DefaultConfig()).Evaluate(context.Background(), EvaluateInput{
			Code: "x", ExpectedExplanation: "y", UserExplanation: "z",
		})
		if err != nil {
			t.Fatalf("Evaluate(%d): %v", tt.score, err)
		}
		if ev.Score != tt.want || ev.Passed != tt.passed {
			t.Errorf("Evaluate(%d) = %+v", tt.score, ev)
		}
		if !strings.Contains(mock.Calls[0].Messages[0].Content, "Developer's explanation:\nz") {
			t.Error("user explanation missing from prompt")
		}
	}
}

func TestSuggestQuestion(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: []byte("  Why is the map guarded by a mutex?\n")})
	q, err := New(mock, DefaultConfig()).SuggestQuestion(context.Background(), "code", "explanation")
	if err != nil {
		t.Fatal(err)
	}
	if q != "Why is the map guarded by a mutex?" {
		t.Errorf("q = %q", q)
	}
	if mock.Calls[0].Schema != nil {
		t.Error("question request should be plain text")
	}

	mock = llm.NewMockProvider(llm.MockResponse{Content: []byte(`""`)})
	if _, err := New(mock, DefaultConfig()).SuggestQuestion(context.Background(), "c", "e"); err == nil {
		t.Error("expected error for empty question")
	}
}
