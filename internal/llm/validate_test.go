package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-segment",
		Description: "A code segment summary",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":    map[string]any{"type": "string"},
				"lines": map[string]any{"type": "integer", "minimum": 0},
				"kind":  map[string]any{"type": "string", "enum": []any{"function", "class", "config"}},
			},
			"required": []any{"id", "lines"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"id":"block_1","lines":12,"kind":"function"}`, false},
		{"optional omitted", `{"id":"block_1","lines":12}`, false},
		{"missing required", `{"id":"block_1"}`, true},
		{"wrong type", `{"id":"block_1","lines":"twelve"}`, true},
		{"below minimum", `{"id":"block_1","lines":-1}`, true},
		{"bad enum", `{"id":"block_1","lines":1,"kind":"module"}`, true},
		{"malformed", `{"id":`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected *ErrInvalidResponse, got %T", err)
				}
				if string(inv.Content) != tt.raw {
					t.Fatalf("content not preserved: %q", inv.Content)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not json`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedArray(t *testing.T) {
	schema := &Schema{
		Name: "test-nested",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"blocks": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type":       "object",
						"properties": map[string]any{"code": map[string]any{"type": "string"}},
						"required":   []any{"code"},
					},
				},
			},
			"required": []any{"blocks"},
		},
	}

	if err := validateResponse(schema, json.RawMessage(`{"blocks":[{"code":"x := 1"}]}`)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := validateResponse(schema, json.RawMessage(`{"blocks":[]}`)); err == nil {
		t.Fatal("expected error for empty blocks")
	}
	if err := validateResponse(schema, json.RawMessage(`{"blocks":[{"text":"x"}]}`)); err == nil {
		t.Fatal("expected error for block without code")
	}
}
