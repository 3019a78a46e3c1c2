package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TranscriptEvent records one transcript entry as it was appended.
type TranscriptEvent struct {
	ent.Schema
}

func (TranscriptEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (TranscriptEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id"),
		field.String("entry_id"),
		field.String("speaker").
			Comment("agent or user"),
		field.Text("text").
			Default(""),
		field.Bool("synthetic").
			Default(false),
		field.Int("score").
			Default(0).
			Comment("Score after the entry was applied"),
	}
}

func (TranscriptEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
	}
}
