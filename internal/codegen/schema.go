package codegen

import "github.com/faitholopade/codegate/internal/llm"

// ArtifactSchema is the structured output contract for Generate.
var ArtifactSchema = &llm.Schema{
	Name:        "code-artifact",
	Description: "Generated code split into annotated blocks with comprehension questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "The complete code implementation",
			},
			"language": map[string]any{
				"type":        "string",
				"description": "The programming language used, lower case",
			},
			"blocks": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id": map[string]any{
							"type":        "string",
							"description": "Block identifier such as block_1",
						},
						"code": map[string]any{
							"type":        "string",
							"description": "A logical section of the code",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "What this section does in 1-2 sentences",
						},
						"question": map[string]any{
							"type":        "string",
							"description": "A quiz question testing understanding of this block",
						},
					},
					"required":             []any{"id", "code", "explanation", "question"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"code", "language", "blocks"},
		"additionalProperties": false,
	},
}

// EvaluationSchema is the structured output contract for Evaluate.
var EvaluationSchema = &llm.Schema{
	Name:        "explanation-grade",
	Description: "A 0-100 grade for a developer's explanation of code",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": 100,
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Brief feedback for the developer",
			},
			"passed": map[string]any{
				"type": "boolean",
			},
		},
		"required":             []any{"score", "feedback", "passed"},
		"additionalProperties": false,
	},
}
