// Package artifact shows generated code and what to do with it next.
package artifact

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/gatekeeper"
	"github.com/faitholopade/codegate/internal/router"
	"github.com/faitholopade/codegate/internal/screen"
	"github.com/faitholopade/codegate/internal/screens/session"
	"github.com/faitholopade/codegate/internal/screens/topicpicker"
	"github.com/faitholopade/codegate/internal/ui/components"
	"github.com/faitholopade/codegate/internal/ui/layout"
	"github.com/faitholopade/codegate/internal/ui/theme"
)

type reviewedMsg struct {
	Text string
	Err  error
}

type resetMsg struct{}

// ArtifactScreen renders the current artifact with its segments.
type ArtifactScreen struct {
	ctrl     *gatekeeper.Controller
	items    []config.CheckItem
	prompt   string
	artifact *codegen.Artifact
	topics   []string

	menu      components.Menu
	offset    int
	reviewing bool
	review    string
	errMsg    string
}

var _ screen.Screen = (*ArtifactScreen)(nil)
var _ screen.KeyHintProvider = (*ArtifactScreen)(nil)

// New creates an ArtifactScreen for the controller's current artifact.
func New(ctrl *gatekeeper.Controller, items []config.CheckItem) *ArtifactScreen {
	st := ctrl.State()
	s := &ArtifactScreen{
		ctrl:     ctrl,
		items:    items,
		prompt:   st.Prompt,
		artifact: st.Artifact,
		topics:   st.Topics,
	}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Start quiz", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: session.NewQuiz(ctrl, items)}
			}
		}},
		{Label: "Learn a topic", Disabled: len(s.topics) == 0, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: topicpicker.New(ctrl, items, s.topics)}
			}
		}},
		{Label: "Review code", Action: s.startReview},
		{Label: "New prompt", Action: func() tea.Cmd {
			return func() tea.Msg {
				ctrl.Reset(context.Background()) //nolint:errcheck
				return resetMsg{}
			}
		}},
	})
	return s
}

func (s *ArtifactScreen) Init() tea.Cmd {
	return nil
}

func (s *ArtifactScreen) Title() string {
	return "Generated Code"
}

func (s *ArtifactScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "PgUp/PgDn", Description: "Scroll code"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ArtifactScreen) startReview() tea.Cmd {
	if s.reviewing {
		return nil
	}
	s.reviewing = true
	s.errMsg = ""
	ctrl := s.ctrl
	return func() tea.Msg {
		text, err := ctrl.Review(context.Background())
		return reviewedMsg{Text: text, Err: err}
	}
}

func (s *ArtifactScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
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
		case "pgdown", "ctrl+d":
			if s.artifact != nil && s.offset < s.artifact.LineCount()-1 {
				s.offset += 10
				s.offset = min(s.offset, s.artifact.LineCount()-1)
			}
			return s, nil
		case "pgup", "ctrl+u":
			s.offset = max(s.offset-10, 0)
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *ArtifactScreen) View(width, height int) string {
	if s.artifact == nil {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\nNo code generated yet.")
	}
	inner := max(width-4, 30)

	var b strings.Builder
	b.WriteString(theme.Title.Render(s.prompt))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%s · %d lines · %d questions",
		s.artifact.Language, s.artifact.LineCount(), len(s.artifact.Segments))))
	b.WriteString("\n\n")
	b.WriteString(s.menu.View())

	if s.reviewing {
		b.WriteString(theme.Hint.Render("Reviewing..."))
		b.WriteString("\n")
	}
	if s.errMsg != "" {
		b.WriteString(theme.Incorrect.Render(s.errMsg))
		b.WriteString("\n")
	}
	if s.review != "" {
		b.WriteString(theme.Card.Width(inner).Render(s.review))
		b.WriteString("\n")
	}

	head := b.String()
	segments := s.segmentList(inner)
	avail := height - lipgloss.Height(head) - lipgloss.Height(segments) - 3
	code := theme.Code.Width(inner).Render(s.codeWindow(max(avail, 5)))

	content := head + "\n" + code + "\n" + segments
	return lipgloss.NewStyle().Padding(0, 2).Render(content)
}

// codeWindow returns up to lines source lines starting at the scroll
// offset, numbered.
func (s *ArtifactScreen) codeWindow(lines int) string {
	src := strings.Split(strings.TrimRight(s.artifact.Source, "\n"), "\n")
	start := min(s.offset, max(len(src)-1, 0))
	end := min(start+lines, len(src))

	var b strings.Builder
	for i := start; i < end; i++ {
		num := lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("%3d ", i+1))
		b.WriteString(num + src[i])
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *ArtifactScreen) segmentList(width int) string {
	var b strings.Builder
	b.WriteString(theme.Subtitle.Render("Questions"))
	for i, seg := range s.artifact.Segments {
		b.WriteString("\n")
		q := lipgloss.NewStyle().Foreground(theme.Text).Width(width - 4).
			Render(fmt.Sprintf("%d. %s", i+1, seg.Question))
		b.WriteString(q)
	}
	return b.String()
}
