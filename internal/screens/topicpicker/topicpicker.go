// Package topicpicker lets the user choose a topic for a tutoring session.
package topicpicker

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/gatekeeper"
	"github.com/faitholopade/codegate/internal/router"
	"github.com/faitholopade/codegate/internal/screen"
	"github.com/faitholopade/codegate/internal/screens/session"
	"github.com/faitholopade/codegate/internal/ui/components"
	"github.com/faitholopade/codegate/internal/ui/layout"
	"github.com/faitholopade/codegate/internal/ui/theme"
)

// PickerScreen lists the topics detected in the current artifact.
type PickerScreen struct {
	menu  components.Menu
	empty bool
}

var _ screen.Screen = (*PickerScreen)(nil)
var _ screen.KeyHintProvider = (*PickerScreen)(nil)

// New creates a PickerScreen. Choosing a topic replaces the picker with a
// tutoring session.
func New(ctrl *gatekeeper.Controller, items []config.CheckItem, topics []string) *PickerScreen {
	menuItems := make([]components.MenuItem, 0, len(topics))
	for _, topic := range topics {
		menuItems = append(menuItems, components.MenuItem{
			Label: topic,
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.ReplaceScreenMsg{Screen: session.NewTutor(ctrl, items, topic)}
				}
			},
		})
	}
	return &PickerScreen{menu: components.NewMenu(menuItems), empty: len(topics) == 0}
}

func (s *PickerScreen) Init() tea.Cmd {
	return nil
}

func (s *PickerScreen) Title() string {
	return "Topics"
}

func (s *PickerScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Learn"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *PickerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *PickerScreen) View(width, height int) string {
	body := theme.Subtitle.Render("Pick a topic from the generated code") + "\n\n"
	if s.empty {
		body += theme.Hint.Render("No topics were detected in this code.")
	} else {
		body += s.menu.View()
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(body)
}
