package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/faitholopade/codegate/internal/gate"
	"github.com/faitholopade/codegate/internal/ui/theme"
)

// ScoreBar renders a 0..100 score with a marker at the pass threshold.
type ScoreBar struct {
	Score     int
	Threshold int
	Width     int
}

// NewScoreBar creates a score bar at gate.PassThreshold.
func NewScoreBar(score, width int) ScoreBar {
	return ScoreBar{Score: score, Threshold: gate.PassThreshold, Width: width}
}

// cells returns the bar width and the filled and threshold cell counts.
func (b ScoreBar) cells() (bar, filled, mark int) {
	bar = b.Width - 12 // "Score " + " 100/100"
	if bar < 10 {
		bar = 10
	}
	score := min(max(b.Score, 0), 100)
	filled = bar * score / 100
	mark = bar * b.Threshold / 100
	if mark >= bar {
		mark = bar - 1
	}
	return bar, filled, mark
}

// View renders the bar on two lines: the bar itself, then the threshold
// caption aligned under the marker.
func (b ScoreBar) View() string {
	bar, filled, mark := b.cells()

	fill := theme.ScoreFilledLow
	if gate.Passed(b.Score) {
		fill = theme.ScoreFilled
	}

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render("Score "))
	for i := 0; i < bar; i++ {
		switch {
		case i == mark:
			sb.WriteString(theme.ThresholdMark.Render("│"))
		case i < filled:
			sb.WriteString(fill.Render(" "))
		default:
			sb.WriteString(theme.ScoreEmpty.Render(" "))
		}
	}
	sb.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(" %3d/100", b.Score)))

	caption := strings.Repeat(" ", len("Score ")+mark) + theme.ThresholdMark.Render(fmt.Sprintf("▲ %d%% to pass", b.Threshold))
	return sb.String() + "\n" + caption
}
