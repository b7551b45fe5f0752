package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/router"
	"github.com/ahabook/linguaflow/internal/screen"
	"github.com/ahabook/linguaflow/internal/screens/home"
	"github.com/ahabook/linguaflow/internal/screens/scene"
	"github.com/ahabook/linguaflow/internal/screens/welcome"
	"github.com/ahabook/linguaflow/internal/ui/layout"
)

// Options configures the interactive app.
type Options struct {
	home.Options

	// Level, when set, skips the menus and opens a scene at that
	// difficulty. Leaving the scene returns to the home screen.
	Level practice.Difficulty

	// SkipSplash starts on the home screen.
	SkipSplash bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	init   tea.Cmd
	width  int
	height int
}

// newAppModel creates a new AppModel starting at the splash screen, the
// home screen, or directly in a scene.
func newAppModel(opts Options) AppModel {
	homeScreen := home.New(opts.Options)

	var first screen.Screen = homeScreen
	if !opts.SkipSplash && opts.Level == "" {
		first = welcome.New(func() screen.Screen { return homeScreen })
	}
	r := router.New(first)
	cmds := []tea.Cmd{first.Init()}

	if opts.Level != "" && opts.NewRunner != nil {
		if runner, err := opts.NewRunner(); err == nil {
			cmds = append(cmds, r.Push(scene.New(runner, opts.Level, opts.TypewriterDelay)))
		}
	}
	return AppModel{router: r, init: tea.Batch(cmds...)}
}

func (m AppModel) Init() tea.Cmd {
	return m.init
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if eh, ok := m.router.Active().(screen.EscapeHandler); ok && eh.HandlesEscape() {
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
	title, status := "", ""
	if active != nil {
		title = active.Title()
	}
	if sp, ok := active.(screen.StatusProvider); ok {
		status = sp.Status()
	}

	header := layout.RenderHeader(title, status, m.width)
	footer := layout.RenderFooter(m.hints(active), m.width)

	contentHeight := max(0, m.height-lipgloss.Height(header)-lipgloss.Height(footer))

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

func (m AppModel) hints(active screen.Screen) []layout.KeyHint {
	if hp, ok := active.(screen.KeyHintProvider); ok {
		return append(hp.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
