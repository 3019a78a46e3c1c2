package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var generationEventColumns = []string{
	"id", "sequence", "timestamp", "prompt", "language", "segments", "success", "error_message",
}

// GenerationsAfter returns up to limit attempts recorded after seq, oldest first.
func (r *eventRepo) GenerationsAfter(ctx context.Context, seq int64, limit int) ([]GenerationEvent, error) {
	b := builder()
	t := b.Table(GenerationEventsTable.Name)
	sel := b.Select(qualify(t, generationEventColumns)...).
		From(t).
		Where(entsql.GT(t.C("sequence"), seq)).
		OrderBy(t.C("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	var out []GenerationEvent
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// LastGeneration returns the newest successful attempt recorded before seq,
// or nil when there is none.
func (r *eventRepo) LastGeneration(ctx context.Context, before int64) (*GenerationEvent, error) {
	b := builder()
	t := b.Table(GenerationEventsTable.Name)
	query, args := b.Select(qualify(t, generationEventColumns)...).
		From(t).
		Where(entsql.And(
			entsql.LT(t.C("sequence"), before),
			entsql.EQ(t.C("success"), true),
		)).
		OrderBy(entsql.Desc(t.C("sequence"))).
		Limit(1).
		Query()

	g, err := scanGeneration(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *eventRepo) GenerationTotals(ctx context.Context) (GenerationTotals, error) {
	b := builder()
	t := b.Table(GenerationEventsTable.Name)
	query, args := b.Select(
		entsql.Count("*"),
		fmt.Sprintf("COALESCE(%s, 0)", entsql.Sum(t.C("success"))),
	).From(t).Query()

	var out GenerationTotals
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&out.Attempts, &out.Succeeded); err != nil {
		return out, fmt.Errorf("query generation totals: %w", err)
	}
	return out, nil
}

func scanGeneration(s scanner) (*GenerationEvent, error) {
	var g GenerationEvent
	err := s.Scan(&g.ID, &g.Sequence, &g.Timestamp, &g.Prompt, &g.Language,
		&g.Segments, &g.Success, &g.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan generation event: %w", err)
	}
	return &g, nil
}
