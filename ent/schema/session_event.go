package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SessionEvent records the lifecycle of a quiz or tutoring session.
type SessionEvent struct {
	ent.Schema
}

func (SessionEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (SessionEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			Comment("UUID grouping events in a session"),
		field.String("mode").
			Comment("quiz or tutor"),
		field.String("action").
			Comment("start, start-failed, connected, end or error"),
		field.String("topic").
			Default(""),
		field.Int("score").
			Default(0),
		field.String("status").
			Default("").
			Comment("Gate status after the action, quiz only"),
		field.Text("detail").
			Default(""),
	}
}

func (SessionEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
	}
}
