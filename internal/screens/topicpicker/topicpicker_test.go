package topicpicker

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap/zaptest"

	"github.com/faitholopade/codegate/internal/gatekeeper"
	"github.com/faitholopade/codegate/internal/router"
	"github.com/faitholopade/codegate/internal/screens/session"
)

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestPickerScreen_ChoiceReplacesWithTutor(t *testing.T) {
	ctrl := gatekeeper.New(gatekeeper.Options{Log: zaptest.NewLogger(t)})
	s := New(ctrl, nil, []string{"Error Handling", "Arrow Functions"})

	s.Update(specialKey(tea.KeyDown))
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected replace command")
	}
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	sess, ok := msg.Screen.(*session.SessionScreen)
	if !ok {
		t.Fatalf("expected SessionScreen, got %T", msg.Screen)
	}
	if sess.Title() != "Tutor: Arrow Functions" {
		t.Errorf("Title = %q, want %q", sess.Title(), "Tutor: Arrow Functions")
	}
}

func TestPickerScreen_Empty(t *testing.T) {
	ctrl := gatekeeper.New(gatekeeper.Options{Log: zaptest.NewLogger(t)})
	s := New(ctrl, nil, nil)

	if !strings.Contains(s.View(80, 24), "No topics were detected") {
		t.Error("expected empty text")
	}
	if _, cmd := s.Update(specialKey(tea.KeyEnter)); cmd != nil {
		t.Error("expected no command without topics")
	}
}
