package store

import (
	"fmt"
	"reflect"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/faitholopade/codegate/ent/schema"
)

var (
	// LLMRequestEventsTable holds the schema information for the "llm_request_events" table.
	LLMRequestEventsTable = mustTable("llm_request_events", entschema.LLMRequestEvent{})
	// GenerationEventsTable holds the schema information for the "generation_events" table.
	GenerationEventsTable = mustTable("generation_events", entschema.GenerationEvent{})
	// SessionEventsTable holds the schema information for the "session_events" table.
	SessionEventsTable = mustTable("session_events", entschema.SessionEvent{})
	// TranscriptEventsTable holds the schema information for the "transcript_events" table.
	TranscriptEventsTable = mustTable("transcript_events", entschema.TranscriptEvent{})
	// ApprovalEventsTable holds the schema information for the "approval_events" table.
	ApprovalEventsTable = mustTable("approval_events", entschema.ApprovalEvent{})

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		LLMRequestEventsTable,
		GenerationEventsTable,
		SessionEventsTable,
		TranscriptEventsTable,
		ApprovalEventsTable,
	}
)

func mustTable(name string, s ent.Interface) *schema.Table {
	t, err := tableOf(name, s)
	if err != nil {
		panic(err)
	}
	return t
}

// tableOf lays out the migration table for an ent schema the way entc
// does: an auto-increment id, then mixin fields, then the schema's own.
// Indexes are named <type>_<fields>, e.g. llmrequestevent_purpose.
func tableOf(name string, s ent.Interface) (*schema.Table, error) {
	id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
	t := &schema.Table{
		Name:       name,
		Columns:    []*schema.Column{id},
		PrimaryKey: []*schema.Column{id},
	}

	var fields []ent.Field
	var indexes []ent.Index
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)

	byName := make(map[string]*schema.Column, len(fields))
	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, d.Name, d.Err)
		}
		c := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Unique:   d.Unique,
			Nullable: d.Optional,
			Size:     int64(d.Size),
		}
		// Func defaults such as time.Now are applied by the writer.
		if d.Default != nil && reflect.TypeOf(d.Default).Kind() != reflect.Func {
			c.Default = d.Default
		}
		t.Columns = append(t.Columns, c)
		byName[d.Name] = c
	}

	prefix := strings.ReplaceAll(strings.TrimSuffix(name, "s"), "_", "")
	for _, ix := range indexes {
		d := ix.Descriptor()
		idx := &schema.Index{Name: d.StorageKey, Unique: d.Unique}
		if idx.Name == "" {
			idx.Name = prefix + "_" + strings.Join(d.Fields, "_")
		}
		for _, f := range d.Fields {
			c, ok := byName[f]
			if !ok {
				return nil, fmt.Errorf("%s: index on unknown field %q", name, f)
			}
			idx.Columns = append(idx.Columns, c)
		}
		t.Indexes = append(t.Indexes, idx)
	}
	return t, nil
}
