package store

import (
	"math"
	"testing"

	"entgo.io/ent/schema/field"
)

func TestTablesFollowEntSchemas(t *testing.T) {
	tbl := LLMRequestEventsTable

	var names []string
	for _, c := range tbl.Columns {
		names = append(names, c.Name)
	}
	if len(names) != len(llmEventColumns) {
		t.Fatalf("columns = %v, want %v", names, llmEventColumns)
	}
	for i, want := range llmEventColumns {
		if names[i] != want {
			t.Errorf("column %d = %q, want %q", i, names[i], want)
		}
	}

	id, seq, ts := tbl.Columns[0], tbl.Columns[1], tbl.Columns[2]
	if !id.Increment || tbl.PrimaryKey[0] != id {
		t.Error("expected auto-increment id primary key")
	}
	if !seq.Unique || seq.Type != field.TypeInt64 {
		t.Errorf("sequence = %+v, want unique int64", seq)
	}
	if ts.Default != nil {
		t.Errorf("timestamp default = %v, want none", ts.Default)
	}

	body := tbl.Columns[len(tbl.Columns)-1]
	if body.Size != math.MaxInt32 || body.Default != "" {
		t.Errorf("response_body = %+v, want text with empty default", body)
	}

	idx := map[string]bool{}
	for _, ix := range tbl.Indexes {
		idx[ix.Name] = true
	}
	for _, want := range []string{"llmrequestevent_purpose", "llmrequestevent_timestamp"} {
		if !idx[want] {
			t.Errorf("missing index %q in %v", want, idx)
		}
	}
}

func TestTableIndexNamesAreUnique(t *testing.T) {
	seen := map[string]string{}
	for _, tbl := range Tables {
		for _, ix := range tbl.Indexes {
			if other, ok := seen[ix.Name]; ok {
				t.Errorf("index %q on both %s and %s", ix.Name, other, tbl.Name)
			}
			seen[ix.Name] = tbl.Name
		}
	}
}
