// Package verdict shows the approval decision after a quiz.
package verdict

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/approval"
	"github.com/faitholopade/codegate/internal/gatekeeper"
	"github.com/faitholopade/codegate/internal/router"
	"github.com/faitholopade/codegate/internal/screen"
	"github.com/faitholopade/codegate/internal/ui/components"
	"github.com/faitholopade/codegate/internal/ui/layout"
	"github.com/faitholopade/codegate/internal/ui/theme"
)

type reviewedMsg struct {
	Text string
	Err  error
}

type resetMsg struct{}

// VerdictScreen displays an approval record and the final score.
type VerdictScreen struct {
	ctrl   *gatekeeper.Controller
	record approval.Record
	score  int

	reviewing bool
	review    string
	errMsg    string
}

var _ screen.Screen = (*VerdictScreen)(nil)
var _ screen.KeyHintProvider = (*VerdictScreen)(nil)
var _ screen.BackInterceptor = (*VerdictScreen)(nil)

// New creates a VerdictScreen.
func New(ctrl *gatekeeper.Controller, record approval.Record, score int) *VerdictScreen {
	return &VerdictScreen{ctrl: ctrl, record: record, score: score}
}

func (s *VerdictScreen) Init() tea.Cmd {
	return nil
}

func (s *VerdictScreen) Title() string {
	if s.record.Approved {
		return "Approved"
	}
	return "Blocked"
}

// InterceptsBack is true because leaving the verdict starts over.
func (s *VerdictScreen) InterceptsBack() bool { return true }

func (s *VerdictScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "r", Description: "Review code"},
		{Key: "Enter", Description: "New prompt"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *VerdictScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case reviewedMsg:
		// A failed model review still carries the static summary.
		s.reviewing = false
		s.review = msg.Text
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
		return s, nil

	case resetMsg:
		return s, func() tea.Msg { return router.PopToRootMsg{} }

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			if s.reviewing || s.review != "" {
				return s, nil
			}
			s.reviewing = true
			s.errMsg = ""
			ctrl := s.ctrl
			return s, func() tea.Msg {
				text, err := ctrl.Review(context.Background())
				return reviewedMsg{Text: text, Err: err}
			}
		case "enter", "esc":
			ctrl := s.ctrl
			return s, func() tea.Msg {
				ctrl.Reset(context.Background()) //nolint:errcheck
				return resetMsg{}
			}
		}
	}
	return s, nil
}

func (s *VerdictScreen) View(width, height int) string {
	inner := min(max(width-8, 30), 80)

	var b strings.Builder
	if s.record.Approved {
		b.WriteString(theme.Correct.Bold(true).Render("✓ Code approved"))
	} else {
		b.WriteString(theme.Incorrect.Bold(true).Render("✗ Code blocked"))
	}
	b.WriteString("\n\n")
	b.WriteString(components.NewScoreBar(s.score, inner).View())
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Width(inner).Render(s.record.Feedback))
	b.WriteString("\n\n")
	b.WriteString(s.referenceLine())

	if s.reviewing {
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Reviewing..."))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Incorrect.Render(s.errMsg))
	}
	if s.review != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Card.Width(inner).Render(s.review))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top).
		PaddingTop(1).
		Render(b.String())
}

func (s *VerdictScreen) referenceLine() string {
	if s.record.Reference == "" {
		return ""
	}
	label := "Pull request"
	if !s.record.Approved {
		label = "Reference"
	}
	line := fmt.Sprintf("%s: %s", label, s.record.Reference)
	switch {
	case s.record.Placeholder:
		line += theme.Hint.Render("  (placeholder)")
	case s.record.Notified:
		line += theme.Hint.Render("  (workflow notified)")
	}
	return lipgloss.NewStyle().Foreground(theme.Secondary).Render(line)
}
