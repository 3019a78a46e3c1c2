package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/faitholopade/codegate/internal/store"
)

func openTestRepo(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

// seedCalls records a retried generation, a quiz evaluation against it and
// a generate call from another client that never produced an attempt.
func seedCalls(t *testing.T, repo store.EventRepo) {
	t.Helper()
	ctx := context.Background()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	gen := func(prompt string, ok bool) store.LLMRequestEventData {
		d := store.LLMRequestEventData{
			Provider: "mock", Model: "mock-model", Purpose: "generate",
			InputTokens: 100, OutputTokens: 400, Success: ok,
			RequestBody: "[user]\nGenerate code for the following feature: " + prompt + "\n\n",
		}
		if !ok {
			d.ErrorMessage = "rate limited"
		}
		return d
	}

	must(repo.AppendLLMRequest(ctx, gen("rate limiter", false)))
	must(repo.AppendLLMRequest(ctx, gen("rate limiter", true)))
	must(repo.AppendGeneration(ctx, store.GenerationEventData{Prompt: "rate limiter", Language: "go", Segments: 3, Success: true}))
	must(repo.AppendLLMRequest(ctx, store.LLMRequestEventData{
		Provider: "mock", Model: "mock-model", Purpose: "evaluate",
		InputTokens: 50, OutputTokens: 10, Success: true,
	}))
	must(repo.AppendLLMRequest(ctx, gen("webhook retries", true)))
	must(repo.AppendSessionEvent(ctx, store.SessionEventData{SessionID: "q1", Mode: "quiz", Action: "start", Score: 50}))
	must(repo.AppendSessionEvent(ctx, store.SessionEventData{SessionID: "q1", Mode: "quiz", Action: "end", Score: 80, Status: "passed"}))
	must(repo.AppendSessionEvent(ctx, store.SessionEventData{SessionID: "t1", Mode: "tutor", Action: "end", Status: "idle"}))
}

func TestServedGeneration(t *testing.T) {
	repo := openTestRepo(t)
	seedCalls(t, repo)
	ctx := context.Background()

	events, err := repo.QueryLLMEvents(ctx, store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}

	byID := map[int]store.LLMEvent{}
	for _, e := range events {
		byID[e.ID] = e
	}
	tests := []struct {
		id     int
		linked bool
	}{
		{1, true},  // failed attempt that was retried
		{2, true},  // attempt that produced the artifact
		{3, true},  // evaluation of that artifact
		{4, false}, // generate call with no recorded attempt
	}
	for _, tt := range tests {
		g, err := servedGeneration(ctx, repo, byID[tt.id])
		if err != nil {
			t.Fatalf("event %d: %v", tt.id, err)
		}
		if tt.linked && (g == nil || g.Prompt != "rate limiter") {
			t.Errorf("event %d: generation = %+v, want rate limiter", tt.id, g)
		}
		if !tt.linked && g != nil {
			t.Errorf("event %d: generation = %+v, want none", tt.id, g)
		}
	}
}

func TestWriteLLMList(t *testing.T) {
	repo := openTestRepo(t)
	seedCalls(t, repo)
	ctx := context.Background()

	events, err := repo.QueryLLMEvents(ctx, store.QueryOpts{Purpose: "generate"})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := writeLLMList(ctx, &out, repo, failedOnly(events, 0)); err != nil {
		t.Fatalf("writeLLMList: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header, rule and one row:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[2], "✗") || !strings.HasSuffix(lines[2], "#1 rate limiter") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestWriteLLMList_Empty(t *testing.T) {
	var out bytes.Buffer
	if err := writeLLMList(context.Background(), &out, openTestRepo(t), nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No LLM events found.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestWriteLLMEvent(t *testing.T) {
	repo := openTestRepo(t)
	seedCalls(t, repo)
	ctx := context.Background()

	e, err := repo.GetLLMEvent(ctx, 3)
	if err != nil || e == nil {
		t.Fatalf("get: %v, %v", e, err)
	}
	var out bytes.Buffer
	if err := writeLLMEvent(ctx, &out, repo, e); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"Purpose:    evaluate", `Generation: #1 "rate limiter" (go, 3 segments)`, "(not captured)"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
}

func TestWriteLLMStats(t *testing.T) {
	repo := openTestRepo(t)
	seedCalls(t, repo)

	var out bytes.Buffer
	if err := writeLLMStats(context.Background(), &out, repo); err != nil {
		t.Fatalf("writeLLMStats: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"66%",  // two of three generate calls succeeded
		"100%", // the evaluation succeeded
		"Generations:  1 of 1 succeeded (100%)",
		"Quizzes:      1 of 1 passed (100%)",
		"Pricing unavailable for: mock-model",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
}

func TestWriteLLMStats_Empty(t *testing.T) {
	var out bytes.Buffer
	if err := writeLLMStats(context.Background(), &out, openTestRepo(t)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No LLM usage recorded yet.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPercent(t *testing.T) {
	if got := percent(2, 3); got != "66%" {
		t.Errorf("percent(2, 3) = %q", got)
	}
	if got := percent(0, 0); got != "-" {
		t.Errorf("percent(0, 0) = %q", got)
	}
}
