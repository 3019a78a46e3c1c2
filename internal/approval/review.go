package approval

import (
	"context"
	"fmt"
	"strings"

	"github.com/faitholopade/codegate/internal/llm"
)

// StaticReview is shown when no model is available.
const StaticReview = `## Review Summary

### Security
- No obvious security vulnerabilities detected

### Code Quality
- Clean code structure
- Proper error handling recommended
- Consider adding input validation

### Suggestions
1. Add types for better type safety
2. Consider extracting reusable functions
3. Add unit tests for critical paths

**Overall**: Code looks good for merge after quiz verification.`

const reviewSystemPrompt = `You are a senior code reviewer. Review the code below and reply in Markdown with three short sections: Security, Code Quality and Suggestions (at most three numbered items). End with one line starting with "**Overall**:". Keep it under 200 words.`

// Reviewer writes a short review summary for approved code.
type Reviewer struct {
	provider llm.Provider
}

// NewReviewer creates a Reviewer. A nil provider always yields
// StaticReview.
func NewReviewer(p llm.Provider) *Reviewer {
	return &Reviewer{provider: p}
}

// Review returns a review. When the model call fails the static review is
// returned together with the error.
func (r *Reviewer) Review(ctx context.Context, code, language string) (string, error) {
	if r.provider == nil {
		return StaticReview, nil
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeReview)

	resp, err := r.provider.Generate(ctx, llm.Request{
		System:      reviewSystemPrompt,
		Messages:    llm.UserMessage(fmt.Sprintf("Language: %s\n\n```\n%s\n```", language, code)),
		MaxTokens:   512,
		Temperature: 0.2,
	})
	if err != nil {
		return StaticReview, fmt.Errorf("review: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return StaticReview, fmt.Errorf("review: empty response")
	}
	return text, nil
}
