package voice

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scorer is the keyword heuristic applied to agent utterances in quiz
// mode. It is a proxy for the agent's verdict and never checks answers
// itself.
type Scorer struct {
	Positive []string
	Negative []string
	Up       int
	Down     int
}

// DefaultScorer uses the phrases the quiz prompt tells the agent to say.
func DefaultScorer() Scorer {
	return NewScorer(
		[]string{"pass", "correct", "good job", "exactly"},
		[]string{"fail", "incorrect", "not quite"},
	)
}

// NewScorer builds a Scorer with the standard +15/-10 weights.
func NewScorer(positive, negative []string) Scorer {
	return Scorer{Positive: positive, Negative: negative, Up: 15, Down: 10}
}

// Apply returns the new score after text. Positive phrases are checked
// first and the first matching rule wins. The result is clamped to
// [0, 100].
func (s Scorer) Apply(score int, text string) int {
	lower := strings.ToLower(text)
	switch {
	case matchesAny(lower, s.Positive):
		score += s.Up
	case matchesAny(lower, s.Negative):
		score -= s.Down
	}
	return min(max(score, 0), 100)
}

func matchesAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" && containsAtWordStart(text, p) {
			return true
		}
	}
	return false
}

// containsAtWordStart reports whether phrase occurs in text at a position
// not preceded by a letter or digit. "incorrect" therefore never counts
// as "correct", while "passed" still counts as "pass".
func containsAtWordStart(text, phrase string) bool {
	for off := 0; ; {
		i := strings.Index(text[off:], phrase)
		if i < 0 {
			return false
		}
		i += off
		if r, _ := utf8.DecodeLastRuneInString(text[:i]); i == 0 || !isWordRune(r) {
			return true
		}
		off = i + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
