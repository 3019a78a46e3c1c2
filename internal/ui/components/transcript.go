package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/ui/theme"
	"github.com/faitholopade/codegate/internal/voice"
)

// Transcript renders entries oldest first and keeps only the newest
// lines that fit in height.
func Transcript(entries []voice.TranscriptEntry, width, height int) string {
	if len(entries) == 0 {
		return theme.Hint.Render("Waiting for the conversation to start...")
	}
	if width < 20 {
		width = 20
	}

	var lines []string
	for _, e := range entries {
		lines = append(lines, strings.Split(renderEntry(e, width), "\n")...)
	}
	if height > 0 && len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

func renderEntry(e voice.TranscriptEntry, width int) string {
	label := theme.AgentSpeaker.Render("Agent")
	if e.Speaker == voice.SpeakerUser {
		label = theme.UserSpeaker.Render("You")
	}
	stamp := lipgloss.NewStyle().Foreground(theme.TextDim).Render(e.CreatedAt.Format("15:04:05"))

	text := lipgloss.NewStyle().Foreground(theme.Text)
	if e.Synthetic {
		text = theme.Synthetic
	}
	body := text.Width(width - 2).Render(e.Text)
	return label + " " + stamp + "\n" + indent(body, "  ")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
