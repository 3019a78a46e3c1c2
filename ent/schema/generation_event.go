package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// GenerationEvent records one code-generation attempt.
type GenerationEvent struct {
	ent.Schema
}

func (GenerationEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (GenerationEvent) Fields() []ent.Field {
	return []ent.Field{
		field.Text("prompt").
			Default(""),
		field.String("language").
			Default(""),
		field.Int("segments").
			Default(0).
			Comment("Explained segments in the artifact"),
		field.Bool("success"),
		field.Text("error_message").
			Default(""),
	}
}
