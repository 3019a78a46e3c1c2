package components

import (
	"strings"
	"testing"
	"time"

	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/gate"
	"github.com/faitholopade/codegate/internal/voice"
)

func TestScoreBarCells(t *testing.T) {
	tests := []struct {
		score, width       int
		bar, filled, mark int
	}{
		{score: 0, width: 112, bar: 100, filled: 0, mark: 70},
		{score: 55, width: 112, bar: 100, filled: 55, mark: 70},
		{score: 100, width: 112, bar: 100, filled: 100, mark: 70},
		{score: 150, width: 112, bar: 100, filled: 100, mark: 70},
		{score: 50, width: 5, bar: 10, filled: 5, mark: 7},
	}
	for _, tt := range tests {
		bar, filled, mark := NewScoreBar(tt.score, tt.width).cells()
		if bar != tt.bar || filled != tt.filled || mark != tt.mark {
			t.Errorf("score %d width %d: got (%d,%d,%d), want (%d,%d,%d)",
				tt.score, tt.width, bar, filled, mark, tt.bar, tt.filled, tt.mark)
		}
	}
}

func TestScoreBarView(t *testing.T) {
	v := NewScoreBar(65, 60).View()
	if !strings.Contains(v, " 65/100") {
		t.Errorf("missing score label in %q", v)
	}
	if !strings.Contains(v, "70% to pass") {
		t.Errorf("missing threshold caption in %q", v)
	}
}

func TestStatusBadge(t *testing.T) {
	for _, s := range []gate.Status{gate.StatusIdle, gate.StatusReady, gate.StatusPassed, gate.StatusFailed} {
		if got := StatusBadge(s); !strings.Contains(got, s.Label()) {
			t.Errorf("badge for %s = %q", s, got)
		}
	}
}

func TestChecklistAndBanner(t *testing.T) {
	items := []config.CheckItem{
		{Name: "ELEVENLABS_API_KEY", Description: "key", URL: "https://elevenlabs.io", Required: true},
		{Name: "N8N_WEBHOOK_URL", Description: "hook", URL: "https://n8n.io"},
	}
	out := Checklist(items)
	if !strings.Contains(out, "ELEVENLABS_API_KEY") || !strings.Contains(out, "https://elevenlabs.io") {
		t.Errorf("checklist = %q", out)
	}
	if ConfigBanner(items, 60) == "" {
		t.Error("expected banner when a required item is missing")
	}

	items[0].Set = true
	if got := ConfigBanner(items, 60); got != "" {
		t.Errorf("expected no banner, got %q", got)
	}
}

func TestTranscriptKeepsNewestLines(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var entries []voice.TranscriptEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, voice.TranscriptEntry{
			Speaker:   voice.SpeakerAgent,
			Text:      "entry " + string(rune('a'+i)),
			CreatedAt: now,
		})
	}

	out := Transcript(entries, 60, 4)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), out)
	}
	if !strings.Contains(out, "entry j") {
		t.Errorf("newest entry missing: %q", out)
	}
	if strings.Contains(out, "entry a") {
		t.Errorf("oldest entry should be cut: %q", out)
	}
}

func TestTranscriptEmpty(t *testing.T) {
	if out := Transcript(nil, 60, 10); !strings.Contains(out, "Waiting") {
		t.Errorf("empty transcript = %q", out)
	}
}
