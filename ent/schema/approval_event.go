package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// ApprovalEvent records a verdict and the approval reference it produced.
type ApprovalEvent struct {
	ent.Schema
}

func (ApprovalEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (ApprovalEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			Default(""),
		field.Int("score"),
		field.Bool("approved"),
		field.String("reference").
			Default("").
			Comment("Pull request URL or placeholder reference"),
		field.Bool("placeholder").
			Default(false),
		field.Text("feedback").
			Default(""),
	}
}
