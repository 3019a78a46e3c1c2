package unavailable

import (
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/screen"
	"github.com/faitholopade/codegate/internal/ui/components"
	"github.com/faitholopade/codegate/internal/ui/theme"
)

// UnavailableScreen explains why a feature cannot run and lists the
// settings that would enable it.
type UnavailableScreen struct {
	title  string
	reason string
	items  []config.CheckItem
}

var _ screen.Screen = (*UnavailableScreen)(nil)

// New creates an UnavailableScreen.
func New(title, reason string, items []config.CheckItem) *UnavailableScreen {
	return &UnavailableScreen{title: title, reason: reason, items: items}
}

// FromError builds the screen for err. Configuration errors only list the
// missing settings.
func FromError(title string, err error, items []config.CheckItem) *UnavailableScreen {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		var missing []config.CheckItem
		for _, item := range items {
			for _, name := range cfgErr.Missing {
				if item.Name == name {
					missing = append(missing, item)
				}
			}
		}
		if len(missing) == 0 {
			for _, name := range cfgErr.Missing {
				missing = append(missing, config.CheckItem{Name: name, Required: true})
			}
		}
		return New(title, "Some settings are missing.", missing)
	}
	return New(title, err.Error(), nil)
}

func (p *UnavailableScreen) Init() tea.Cmd {
	return nil
}

func (p *UnavailableScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	return p, nil
}

func (p *UnavailableScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Incorrect.Render("╌╌ Unavailable ╌╌"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Width(min(width-4, 70)).Render(p.reason))
	if len(p.items) > 0 {
		b.WriteString("\n\n")
		b.WriteString(components.Checklist(p.items))
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Set these in the environment or a .env file, then restart."))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(b.String())
}

func (p *UnavailableScreen) Title() string {
	return p.title
}
