package components

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/gate"
	"github.com/faitholopade/codegate/internal/ui/theme"
)

// StatusBadge renders the gate status label, colored by outcome.
func StatusBadge(s gate.Status) string {
	return lipgloss.NewStyle().
		Foreground(statusColor(s)).
		Bold(true).
		Render("● " + s.Label())
}

func statusColor(s gate.Status) color.Color {
	switch s {
	case gate.StatusPassed:
		return theme.Success
	case gate.StatusFailed:
		return theme.Error
	case gate.StatusActive, gate.StatusEvaluating:
		return theme.Secondary
	case gate.StatusGenerating:
		return theme.Warning
	case gate.StatusReady:
		return theme.Primary
	default:
		return theme.TextDim
	}
}
