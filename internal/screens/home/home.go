package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/gatekeeper"
	"github.com/faitholopade/codegate/internal/router"
	"github.com/faitholopade/codegate/internal/screen"
	"github.com/faitholopade/codegate/internal/screens/artifact"
	"github.com/faitholopade/codegate/internal/screens/history"
	"github.com/faitholopade/codegate/internal/screens/session"
	"github.com/faitholopade/codegate/internal/screens/unavailable"
	"github.com/faitholopade/codegate/internal/store"
	"github.com/faitholopade/codegate/internal/ui/components"
	"github.com/faitholopade/codegate/internal/ui/layout"
	"github.com/faitholopade/codegate/internal/ui/theme"
)

// generatedMsg reports the end of a generation request.
type generatedMsg struct {
	Err error
}

// HomeScreen takes a feature prompt and offers the other entry points.
type HomeScreen struct {
	ctrl      *gatekeeper.Controller
	items     []config.CheckItem
	eventRepo store.EventRepo

	input      components.TextInput
	menu       components.Menu
	inMenu     bool
	generating bool
	notice     string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a HomeScreen. eventRepo may be nil, in which case history is
// unavailable.
func New(ctrl *gatekeeper.Controller, items []config.CheckItem, eventRepo store.EventRepo) *HomeScreen {
	s := &HomeScreen{
		ctrl:      ctrl,
		items:     items,
		eventRepo: eventRepo,
		input:     components.NewTextInput("Describe a feature to generate...", 300, 60),
	}
	s.menu = s.buildMenu()
	return s
}

func (s *HomeScreen) buildMenu() components.Menu {
	var menuItems []components.MenuItem
	for _, p := range codegen.ExamplePrompts {
		menuItems = append(menuItems, components.MenuItem{
			Label: "Try: " + p,
			Action: func() tea.Cmd {
				s.input.SetValue(p)
				s.inMenu = false
				return nil
			},
		})
	}

	ctrl, items, repo := s.ctrl, s.items, s.eventRepo
	menuItems = append(menuItems,
		components.MenuItem{
			Label:    "Current code",
			Disabled: ctrl.State().Artifact == nil,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: artifact.New(ctrl, items)}
				}
			},
		},
		components.MenuItem{
			Label: "Learn without code",
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: session.NewTutor(ctrl, items, "")}
				}
			},
		},
		components.MenuItem{
			Label: "Session history",
			Action: func() tea.Cmd {
				if repo == nil {
					return func() tea.Msg {
						return router.PushScreenMsg{Screen: unavailable.New("History", "No database is open.", nil)}
					}
				}
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: history.New(repo)}
				}
			},
		},
		components.MenuItem{
			Label:  "Quit",
			Action: func() tea.Cmd { return tea.Quit },
		},
	)

	return components.NewMenu(menuItems)
}

// syncMenu rebuilds the menu when the artifact appeared or was cleared
// while another screen was on top.
func (s *HomeScreen) syncMenu() {
	hasArtifact := s.ctrl.State().Artifact != nil
	for i, item := range s.menu.Items {
		if item.Label != "Current code" || item.Disabled != hasArtifact {
			continue
		}
		sel := s.menu.Selected
		s.menu = s.buildMenu()
		if !s.menu.Items[sel].Disabled {
			s.menu.Selected = sel
		} else if sel == i {
			s.menu.Selected = 0
		}
		return
	}
}

func (s *HomeScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *HomeScreen) Title() string {
	return "Home"
}

func (s *HomeScreen) KeyHints() []layout.KeyHint {
	if s.inMenu {
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Tab", Description: "Prompt"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Generate"},
		{Key: "↓", Description: "Menu"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *HomeScreen) generate(prompt string) tea.Cmd {
	ctrl := s.ctrl
	return func() tea.Msg {
		_, err := ctrl.Generate(context.Background(), prompt)
		return generatedMsg{Err: err}
	}
}

func (s *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case generatedMsg:
		s.generating = false
		s.menu = s.buildMenu()
		s.inMenu = false
		if msg.Err != nil {
			s.notice = msg.Err.Error()
			return s, nil
		}
		s.notice = ""
		s.input.Reset()
		ctrl, items := s.ctrl, s.items
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: artifact.New(ctrl, items)}
		}

	case screen.RefreshMsg:
		s.syncMenu()
		return s, nil

	case tea.KeyMsg:
		if s.generating {
			return s, nil
		}
		s.syncMenu()
		if s.inMenu {
			return s.updateMenu(msg)
		}
		switch msg.String() {
		case "down", "tab":
			s.inMenu = true
			s.input.Model.Blur()
			return s, nil
		case "enter":
			prompt := s.input.Value()
			if prompt == "" {
				s.notice = "Describe a feature first."
				return s, nil
			}
			s.generating = true
			s.notice = ""
			return s, s.generate(prompt)
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *HomeScreen) updateMenu(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "tab":
		s.inMenu = false
		return s, s.input.Model.Focus()
	case "up", "k":
		if s.menu.Selected == 0 {
			s.inMenu = false
			return s, s.input.Model.Focus()
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	if !s.inMenu {
		// An example prompt was chosen.
		return s, tea.Batch(cmd, s.input.Model.Focus())
	}
	return s, cmd
}

func (s *HomeScreen) View(width, height int) string {
	inner := min(max(width-8, 30), 80)

	var b strings.Builder
	b.WriteString(theme.Title.Render("What should we build?"))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render("Code ships only after you can explain it."))
	b.WriteString("\n\n")

	if banner := components.ConfigBanner(s.items, inner); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n\n")
	}

	box := theme.Card
	if !s.inMenu {
		box = box.BorderForeground(theme.Primary)
	}
	b.WriteString(box.Width(inner).Render(s.input.View()))
	b.WriteString("\n")

	switch {
	case s.generating:
		b.WriteString(theme.Hint.Render("Generating code..."))
	case s.notice != "":
		b.WriteString(theme.Notice.Render(s.notice))
	}
	b.WriteString("\n\n")
	b.WriteString(s.menu.View())

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top).
		PaddingTop(1).
		Render(b.String())
}
