// Package codegen turns a feature description into an annotated code
// artifact, and grades free-text explanations of that code, through an
// llm.Provider.
package codegen

import "strings"

// DefaultLanguage is assumed when the model omits a language tag.
const DefaultLanguage = "typescript"

// Artifact is one generation result. It is never mutated after Generate
// returns; a new request replaces it.
type Artifact struct {
	Source   string    `json:"code"`
	Language string    `json:"language"`
	Segments []Segment `json:"blocks"`
}

// Segment is a slice of the artifact with the explanation a reader should
// be able to give and the question that checks it. Order is question order.
type Segment struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
	Question    string `json:"question"`
}

// Segment returns the segment with the given id.
func (a *Artifact) Segment(id string) (Segment, bool) {
	for _, s := range a.Segments {
		if s.ID == id {
			return s, true
		}
	}
	return Segment{}, false
}

// LineCount returns the number of source lines.
func (a *Artifact) LineCount() int {
	if a.Source == "" {
		return 0
	}
	return strings.Count(strings.TrimRight(a.Source, "\n"), "\n") + 1
}

// Evaluation is the model's grade for one explanation.
type Evaluation struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	// Passed is recomputed from Score; the model's own flag is ignored.
	Passed bool `json:"passed"`
}

// EvaluateInput is what the grader sees.
type EvaluateInput struct {
	Code                string
	ExpectedExplanation string
	UserExplanation     string
}
