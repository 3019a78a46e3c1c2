package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/gatekeeper"
	"github.com/faitholopade/codegate/internal/logx"
	"github.com/faitholopade/codegate/internal/router"
	"github.com/faitholopade/codegate/internal/screen"
	"github.com/faitholopade/codegate/internal/screens/home"
	"github.com/faitholopade/codegate/internal/store"
	"github.com/faitholopade/codegate/internal/ui/components"
	"github.com/faitholopade/codegate/internal/ui/layout"
)

// Options holds the dependencies of the TUI.
type Options struct {
	Controller *gatekeeper.Controller
	// Checklist feeds the configuration banner.
	Checklist []config.CheckItem
	// EventRepo is optional; without it history is unavailable.
	EventRepo store.EventRepo
}

// changedMsg is sent when the controller reported progress.
type changedMsg struct{}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	ctrl   *gatekeeper.Controller
	width  int
	height int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(opts Options) AppModel {
	homeScreen := home.New(opts.Controller, opts.Checklist, opts.EventRepo)
	return AppModel{
		router: router.New(homeScreen),
		ctrl:   opts.Controller,
	}
}

// waitForChange blocks until the controller signals. Only one wait is
// outstanding at a time.
func (m AppModel) waitForChange() tea.Cmd {
	changes := m.ctrl.Changes()
	return func() tea.Msg {
		<-changes
		return changedMsg{}
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), m.waitForChange())
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case changedMsg:
		cmd := m.router.Update(screen.RefreshMsg{})
		return m, tea.Batch(cmd, m.waitForChange())

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			ctrl := m.ctrl
			return m, func() tea.Msg {
				if err := ctrl.EndSession(context.Background()); err != nil {
					logx.L().Warn("end session on quit", zap.Error(err))
				}
				return tea.Quit()
			}
		case "esc":
			if bi, ok := m.router.Active().(screen.BackInterceptor); ok && bi.InterceptsBack() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, components.StatusBadge(m.ctrl.Gate().Status()), m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	if opts.Controller == nil {
		return fmt.Errorf("app: controller is required")
	}
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
