package store

import (
	"context"
	"fmt"
	"sort"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendGeneration(ctx context.Context, data GenerationEventData) error {
	return r.insert(ctx, GenerationEventsTable.Name,
		[]string{"prompt", "language", "segments", "success", "error_message"},
		[]any{data.Prompt, data.Language, data.Segments, data.Success, data.ErrorMessage},
	)
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	return r.insert(ctx, SessionEventsTable.Name,
		[]string{"session_id", "mode", "action", "topic", "score", "status", "detail"},
		[]any{data.SessionID, data.Mode, data.Action, data.Topic, data.Score, data.Status, data.Detail},
	)
}

func (r *eventRepo) AppendTranscript(ctx context.Context, data TranscriptEventData) error {
	return r.insert(ctx, TranscriptEventsTable.Name,
		[]string{"session_id", "entry_id", "speaker", "text", "synthetic", "score"},
		[]any{data.SessionID, data.EntryID, data.Speaker, data.Text, data.Synthetic, data.Score},
	)
}

func (r *eventRepo) AppendApproval(ctx context.Context, data ApprovalEventData) error {
	return r.insert(ctx, ApprovalEventsTable.Name,
		[]string{"session_id", "score", "approved", "reference", "placeholder", "feedback"},
		[]any{data.SessionID, data.Score, data.Approved, data.Reference, data.Placeholder, data.Feedback},
	)
}

func (r *eventRepo) SessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	b := builder()
	t := b.Table(SessionEventsTable.Name)
	sel := b.Select(qualify(t, []string{
		"id", "sequence", "timestamp", "session_id", "mode", "action", "topic", "score", "status", "detail",
	})...).From(t)
	if sessionID != "" {
		sel.Where(entsql.EQ(t.C("session_id"), sessionID))
	}
	query, args := sel.OrderBy(t.C("sequence")).Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var e SessionEvent
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.SessionID, &e.Mode,
			&e.Action, &e.Topic, &e.Score, &e.Status, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) Transcript(ctx context.Context, sessionID string) ([]TranscriptEvent, error) {
	b := builder()
	t := b.Table(TranscriptEventsTable.Name)
	query, args := b.Select(qualify(t, []string{
		"id", "sequence", "timestamp", "session_id", "entry_id", "speaker", "text", "synthetic", "score",
	})...).
		From(t).
		Where(entsql.EQ(t.C("session_id"), sessionID)).
		OrderBy(t.C("sequence")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var out []TranscriptEvent
	for rows.Next() {
		var e TranscriptEvent
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.SessionID, &e.EntryID,
			&e.Speaker, &e.Text, &e.Synthetic, &e.Score); err != nil {
			return nil, fmt.Errorf("scan transcript event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListSessions folds the session lifecycle events into one summary per
// session, newest first.
func (r *eventRepo) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	events, err := r.SessionEvents(ctx, "")
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*SessionSummary)
	var order []string
	for _, e := range events {
		s, ok := byID[e.SessionID]
		if !ok {
			s = &SessionSummary{SessionID: e.SessionID, Mode: e.Mode, Topic: e.Topic, StartedAt: e.Timestamp}
			byID[e.SessionID] = s
			order = append(order, e.SessionID)
		}
		s.LastAction = e.Action
		s.Score = e.Score
		if e.Status != "" {
			s.Status = e.Status
		}
	}

	counts, err := r.transcriptCounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SessionSummary, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		s := byID[order[i]]
		s.Entries = counts[s.SessionID]
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *eventRepo) transcriptCounts(ctx context.Context) (map[string]int, error) {
	b := builder()
	t := b.Table(TranscriptEventsTable.Name)
	query, args := b.Select(t.C("session_id"), entsql.Count("*")).
		From(t).
		GroupBy(t.C("session_id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count transcript entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan transcript count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
