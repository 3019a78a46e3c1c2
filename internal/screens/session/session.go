package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/gatekeeper"
	"github.com/faitholopade/codegate/internal/router"
	"github.com/faitholopade/codegate/internal/screen"
	"github.com/faitholopade/codegate/internal/screens/unavailable"
	"github.com/faitholopade/codegate/internal/screens/verdict"
	"github.com/faitholopade/codegate/internal/ui/components"
	"github.com/faitholopade/codegate/internal/ui/layout"
	"github.com/faitholopade/codegate/internal/ui/theme"
	"github.com/faitholopade/codegate/internal/voice"
)

// startedMsg reports the result of opening the session.
type startedMsg struct {
	Err error
}

// endedMsg is sent once End returned.
type endedMsg struct {
	Err error
}

// sentMsg is sent once a typed message was delivered.
type sentMsg struct {
	Err error
}

// SessionScreen shows a live quiz or tutoring conversation.
type SessionScreen struct {
	ctrl  *gatekeeper.Controller
	items []config.CheckItem
	mode  voice.Mode
	topic string

	input   components.TextInput
	started bool
	closed  bool
	notice  string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.BackInterceptor = (*SessionScreen)(nil)

// NewQuiz creates a screen that quizzes on the current artifact.
func NewQuiz(ctrl *gatekeeper.Controller, items []config.CheckItem) *SessionScreen {
	return newScreen(ctrl, items, voice.ModeQuiz, "")
}

// NewTutor creates a screen that tutors on topic. An empty topic starts a
// free-form session when there is no artifact.
func NewTutor(ctrl *gatekeeper.Controller, items []config.CheckItem, topic string) *SessionScreen {
	return newScreen(ctrl, items, voice.ModeTutor, topic)
}

func newScreen(ctrl *gatekeeper.Controller, items []config.CheckItem, mode voice.Mode, topic string) *SessionScreen {
	return &SessionScreen{
		ctrl:  ctrl,
		items: items,
		mode:  mode,
		topic: topic,
		input: components.NewTextInput("Type a reply...", 500, 60),
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	return tea.Batch(s.start(), s.input.Init())
}

func (s *SessionScreen) Title() string {
	if s.mode == voice.ModeTutor {
		if s.topic == "" {
			return "Tutor"
		}
		return "Tutor: " + s.topic
	}
	return "Quiz"
}

func (s *SessionScreen) InterceptsBack() bool { return true }

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	if s.closed {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Esc", Description: "End session"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *SessionScreen) start() tea.Cmd {
	ctrl, mode, topic := s.ctrl, s.mode, s.topic
	return func() tea.Msg {
		ctx := context.Background()
		if mode == voice.ModeQuiz {
			return startedMsg{Err: ctrl.StartQuiz(ctx)}
		}
		return startedMsg{Err: ctrl.StartTutor(ctx, topic)}
	}
}

func (s *SessionScreen) end() tea.Cmd {
	ctrl := s.ctrl
	return func() tea.Msg {
		return endedMsg{Err: ctrl.EndSession(context.Background())}
	}
}

func (s *SessionScreen) send(text string) tea.Cmd {
	ctrl := s.ctrl
	return func() tea.Msg {
		return sentMsg{Err: ctrl.Send(context.Background(), text)}
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		s.started = true
		if msg.Err != nil {
			var cfgErr *config.ConfigurationError
			if errors.As(msg.Err, &cfgErr) {
				next := unavailable.FromError(s.Title(), msg.Err, s.items)
				return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
			}
			s.closed = !s.ctrl.Sessions().Active()
			s.notice = msg.Err.Error()
		}
		return s, nil

	case endedMsg:
		if msg.Err != nil {
			s.notice = msg.Err.Error()
		}
		return s.settle()

	case sentMsg:
		if msg.Err != nil {
			s.notice = msg.Err.Error()
		}
		return s, nil

	case screen.RefreshMsg:
		return s.settle()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if s.closed || !s.ctrl.Sessions().Active() {
				return s, func() tea.Msg { return router.PopScreenMsg{} }
			}
			s.notice = "Ending session..."
			return s, s.end()
		case "enter":
			text := s.input.Value()
			if text == "" || s.closed {
				return s, nil
			}
			s.input.Reset()
			s.notice = ""
			return s, s.send(text)
		}
	}

	if s.closed {
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// settle notices the end of the session. A quiz that reached a verdict
// moves on to the verdict screen.
func (s *SessionScreen) settle() (screen.Screen, tea.Cmd) {
	if !s.started || s.ctrl.Sessions().Active() {
		return s, nil
	}
	s.closed = true
	if s.mode != voice.ModeQuiz {
		return s, nil
	}
	st := s.ctrl.State()
	if st.Approval == nil || !st.Status.Terminal() {
		return s, nil
	}
	next := verdict.New(s.ctrl, *st.Approval, st.Session.Score)
	return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *SessionScreen) View(width, height int) string {
	snap := s.ctrl.Sessions().Snapshot()
	inner := max(width-4, 20)

	var top []string
	top = append(top, s.statusLine(snap))
	if snap.Scored {
		top = append(top, components.NewScoreBar(snap.Score, inner).View())
	}

	var bottom []string
	if s.notice != "" {
		bottom = append(bottom, theme.Notice.Render(s.notice))
	}
	if !s.closed {
		bottom = append(bottom, s.input.View())
	} else {
		bottom = append(bottom, theme.Hint.Render("Session closed. Press Esc to go back."))
	}

	header := strings.Join(top, "\n")
	footer := strings.Join(bottom, "\n")
	avail := height - lipgloss.Height(header) - lipgloss.Height(footer) - 4
	transcript := components.Transcript(snap.Transcript, inner-2, max(avail, 3))

	body := theme.Card.Width(inner).Render(transcript)
	content := header + "\n\n" + body + "\n" + footer
	return lipgloss.NewStyle().Padding(0, 2).Render(content)
}

func (s *SessionScreen) statusLine(snap voice.Snapshot) string {
	phase := snap.Phase.String()
	if !s.started {
		phase = "starting"
	}
	style := lipgloss.NewStyle().Foreground(theme.TextDim)
	if snap.Phase == voice.PhaseConnected {
		style = lipgloss.NewStyle().Foreground(theme.Success)
	}
	mode := "Quiz"
	if s.mode == voice.ModeTutor {
		mode = "Tutor"
		if s.topic != "" {
			mode = fmt.Sprintf("Tutor · %s", s.topic)
		}
	}
	return theme.Selected.Render(mode) + "  " + style.Render("● "+phase)
}
