package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/ui/theme"
)

// Checklist renders the setup rows: one line per credential with its
// state and where to get it.
func Checklist(items []config.CheckItem) string {
	var b strings.Builder
	for _, item := range items {
		mark := theme.Correct.Render("✓")
		switch {
		case !item.Set && item.Required:
			mark = theme.Incorrect.Render("✗")
		case !item.Set:
			mark = lipgloss.NewStyle().Foreground(theme.TextDim).Render("○")
		}

		name := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(item.Name)
		desc := lipgloss.NewStyle().Foreground(theme.TextDim).Render(item.Description)
		b.WriteString(mark + " " + name + "  " + desc)
		if !item.Set && item.URL != "" {
			b.WriteString("  " + theme.Hint.Render(item.URL))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ConfigBanner is the warning box shown while required settings are
// missing. It returns "" when nothing required is missing.
func ConfigBanner(items []config.CheckItem, width int) string {
	missing := false
	for _, item := range items {
		if item.Required && !item.Set {
			missing = true
			break
		}
	}
	if !missing {
		return ""
	}

	title := theme.Notice.Bold(true).Render("Configuration required")
	hint := theme.Hint.Render("Set these in the environment or a .env file, then restart.")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Warning).
		Padding(0, 1).
		Width(width).
		Render(title + "\n" + Checklist(items) + "\n" + hint)
}
