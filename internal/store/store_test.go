package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestWALOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegate.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestSequenceIsGlobal(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if err := repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "s1", Mode: "quiz", Action: "start", Score: 50}); err != nil {
		t.Fatalf("append session: %v", err)
	}
	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "generate", Success: true}); err != nil {
		t.Fatalf("append llm: %v", err)
	}
	if err := repo.AppendTranscript(ctx, TranscriptEventData{SessionID: "s1", EntryID: "e1", Speaker: "agent", Text: "hi", Score: 50}); err != nil {
		t.Fatalf("append transcript: %v", err)
	}

	sess, err := repo.SessionEvents(ctx, "s1")
	if err != nil || len(sess) != 1 {
		t.Fatalf("session events = %v, %v", sess, err)
	}
	llmEvents, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil || len(llmEvents) != 1 {
		t.Fatalf("llm events = %v, %v", llmEvents, err)
	}
	tr, err := repo.Transcript(ctx, "s1")
	if err != nil || len(tr) != 1 {
		t.Fatalf("transcript = %v, %v", tr, err)
	}

	if !(sess[0].Sequence < llmEvents[0].Sequence && llmEvents[0].Sequence < tr[0].Sequence) {
		t.Errorf("sequences not increasing: %d %d %d", sess[0].Sequence, llmEvents[0].Sequence, tr[0].Sequence)
	}
}

func TestLLMEventQueries(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	rows := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Purpose: "generate", InputTokens: 100, OutputTokens: 400, LatencyMs: 900, Success: true, RequestBody: "[user]\nrate limiter"},
		{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Purpose: "evaluate", InputTokens: 50, OutputTokens: 20, LatencyMs: 300, Success: true},
		{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Purpose: "generate", InputTokens: 10, LatencyMs: 100, ErrorMessage: "boom"},
	}
	for _, r := range rows {
		if err := repo.AppendLLMRequest(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d events, want 2", len(all))
	}
	if all[0].ErrorMessage != "boom" {
		t.Errorf("newest first: got %q", all[0].ErrorMessage)
	}

	gen, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "generate"})
	if err != nil || len(gen) != 2 {
		t.Fatalf("purpose filter = %d, %v", len(gen), err)
	}

	first, err := repo.GetLLMEvent(ctx, all[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first == nil || first.Purpose != "evaluate" {
		t.Fatalf("get returned %+v", first)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("missing = %+v, %v", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 || byPurpose[1].Purpose != "generate" || byPurpose[1].Calls != 2 || byPurpose[1].InputTokens != 110 {
		t.Errorf("usage by purpose = %+v", byPurpose)
	}
	if byPurpose[1].AvgLatencyMs != 500 {
		t.Errorf("avg latency = %d, want 500", byPurpose[1].AvgLatencyMs)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Calls != 3 || byModel[0].OutputTokens != 420 {
		t.Errorf("usage by model = %+v", byModel)
	}
}

func TestListSessions(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "a", Mode: "quiz", Action: "start", Score: 50}))
	must(repo.AppendTranscript(ctx, TranscriptEventData{SessionID: "a", EntryID: "1", Speaker: "agent", Text: "Q1", Score: 50}))
	must(repo.AppendTranscript(ctx, TranscriptEventData{SessionID: "a", EntryID: "2", Speaker: "user", Text: "A1", Score: 50}))
	must(repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "a", Mode: "quiz", Action: "end", Score: 80, Status: "passed"}))
	must(repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "b", Mode: "tutor", Action: "start", Topic: "Arrow Functions"}))
	must(repo.AppendApproval(ctx, ApprovalEventData{SessionID: "a", Score: 80, Approved: true, Reference: "https://example.com/pull/1", Placeholder: true}))
	must(repo.AppendGeneration(ctx, GenerationEventData{Prompt: "rate limiter", Language: "go", Segments: 3, Success: true}))

	list, err := repo.ListSessions(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d sessions, want 2", len(list))
	}

	var a SessionSummary
	for _, s := range list {
		if s.SessionID == "a" {
			a = s
		}
	}
	if a.Status != "passed" || a.Score != 80 || a.Entries != 2 || a.LastAction != "end" {
		t.Errorf("session a = %+v", a)
	}

	limited, err := repo.ListSessions(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited = %v, %v", limited, err)
	}
}

func TestGenerationQueries(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	// Sequences 1, 2 and 4 are attempts; 3 is a model call.
	must(repo.AppendGeneration(ctx, GenerationEventData{Prompt: "rate limiter", Language: "go", Segments: 3, Success: true}))
	must(repo.AppendGeneration(ctx, GenerationEventData{Prompt: "webhook", Success: false, ErrorMessage: "parse: bad json"}))
	must(repo.AppendLLMRequest(ctx, LLMRequestEventData{Purpose: "evaluate", Success: true}))
	must(repo.AppendGeneration(ctx, GenerationEventData{Prompt: "csv export", Language: "python", Segments: 2, Success: true}))

	last, err := repo.LastGeneration(ctx, 3)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last == nil || last.Prompt != "rate limiter" || last.Sequence != 1 {
		t.Errorf("last = %+v, want the successful attempt at seq 1", last)
	}
	if none, err := repo.LastGeneration(ctx, 1); err != nil || none != nil {
		t.Errorf("LastGeneration(1) = %+v, %v; want nil", none, err)
	}

	after, err := repo.GenerationsAfter(ctx, 1, 0)
	if err != nil {
		t.Fatalf("after: %v", err)
	}
	if len(after) != 2 || after[0].Prompt != "webhook" || after[1].Prompt != "csv export" {
		t.Errorf("after = %+v", after)
	}
	if after[0].ErrorMessage != "parse: bad json" || after[0].Success {
		t.Errorf("failed attempt = %+v", after[0])
	}
	if limited, _ := repo.GenerationsAfter(ctx, 0, 1); len(limited) != 1 || limited[0].Sequence != 1 {
		t.Errorf("limited = %+v", limited)
	}

	totals, err := repo.GenerationTotals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Attempts != 3 || totals.Succeeded != 2 {
		t.Errorf("totals = %+v, want 3 attempts and 2 succeeded", totals)
	}
}

func TestGenerationTotals_Empty(t *testing.T) {
	s := openTestStore(t)
	totals, err := s.EventRepo().GenerationTotals(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if totals.Attempts != 0 || totals.Succeeded != 0 {
		t.Errorf("totals = %+v", totals)
	}
}

func TestLLMUsageByPurpose_Succeeded(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, ok := range []bool{true, false, true} {
		if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Purpose: "generate", Success: ok}); err != nil {
			t.Fatal(err)
		}
	}
	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(usage) != 1 || usage[0].Calls != 3 || usage[0].Succeeded != 2 {
		t.Errorf("usage = %+v, want 3 calls and 2 succeeded", usage)
	}
}
