package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/router"
	"github.com/faitholopade/codegate/internal/screen"
	"github.com/faitholopade/codegate/internal/store"
	"github.com/faitholopade/codegate/internal/ui/layout"
	"github.com/faitholopade/codegate/internal/ui/theme"
)

// listLimit caps the number of sessions shown.
const listLimit = 50

type historyLoadedMsg struct {
	Sessions []store.SessionSummary
	Err      error
}

type transcriptLoadedMsg struct {
	SessionID string
	Entries   []store.TranscriptEvent
	Err       error
}

// HistoryScreen displays past sessions and their transcripts.
type HistoryScreen struct {
	eventRepo   store.EventRepo
	sessions    []store.SessionSummary
	transcripts map[string][]store.TranscriptEvent
	selected    int
	expanded    map[int]bool
	loaded      bool
	errMsg      string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(eventRepo store.EventRepo) *HistoryScreen {
	return &HistoryScreen{
		eventRepo:   eventRepo,
		transcripts: make(map[string][]store.TranscriptEvent),
		expanded:    make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.eventRepo
	return func() tea.Msg {
		sessions, err := repo.ListSessions(context.Background(), listLimit)
		return historyLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Transcript"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) loadTranscript(id string) tea.Cmd {
	repo := s.eventRepo
	return func() tea.Msg {
		entries, err := repo.Transcript(context.Background(), id)
		return transcriptLoadedMsg{SessionID: id, Entries: entries, Err: err}
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
		}
		s.loaded = true
		return s, nil

	case transcriptLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.transcripts[msg.SessionID] = msg.Entries
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			if s.selected >= len(s.sessions) {
				return s, nil
			}
			s.expanded[s.selected] = !s.expanded[s.selected]
			id := s.sessions[s.selected].SessionID
			if _, ok := s.transcripts[id]; s.expanded[s.selected] && !ok {
				return s, s.loadTranscript(id)
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.sessions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No sessions yet. Generate some code and take the quiz!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sess := range s.sessions {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		b.WriteString(prefix + summaryLine(sess, i == s.selected))
		b.WriteString("\n")

		if !s.expanded[i] {
			continue
		}
		entries, ok := s.transcripts[sess.SessionID]
		switch {
		case !ok:
			b.WriteString(theme.Hint.Render("    Loading transcript..."))
			b.WriteString("\n")
		case len(entries) == 0:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
				Render("    No transcript recorded"))
			b.WriteString("\n")
		default:
			for _, e := range entries {
				b.WriteString(entryLine(e, width-6))
				b.WriteString("\n")
			}
		}
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func summaryLine(sess store.SessionSummary, selected bool) string {
	date := sess.StartedAt.Local().Format("Jan 02 15:04")
	kind := sess.Mode
	if sess.Topic != "" {
		kind += " · " + sess.Topic
	}
	line := fmt.Sprintf("%s  %-28s  %3d messages", date, kind, sess.Entries)
	if sess.Mode == "quiz" {
		line += fmt.Sprintf("  score %d", sess.Score)
	}

	style := lipgloss.NewStyle().Foreground(theme.Text)
	if selected {
		style = style.Foreground(theme.Primary).Bold(true)
	}
	status := ""
	if sess.Status != "" {
		status = "  " + lipgloss.NewStyle().Foreground(statusColor(sess.Status)).Render(sess.Status)
	}
	return style.Render(line) + status
}

func entryLine(e store.TranscriptEvent, width int) string {
	label := theme.AgentSpeaker.Render("Agent")
	if e.Speaker == "user" {
		label = theme.UserSpeaker.Render("You  ")
	}
	text := lipgloss.NewStyle().Foreground(theme.Text)
	if e.Synthetic {
		text = theme.Synthetic
	}
	return "    " + label + " " + text.Width(max(width-6, 20)).Render(e.Text)
}

func statusColor(status string) color.Color {
	switch status {
	case "passed":
		return theme.Success
	case "failed":
		return theme.Error
	default:
		return theme.TextDim
	}
}
