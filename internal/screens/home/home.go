package home

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/router"
	"github.com/ahabook/linguaflow/internal/scoring"
	"github.com/ahabook/linguaflow/internal/screen"
	"github.com/ahabook/linguaflow/internal/screens/history"
	"github.com/ahabook/linguaflow/internal/screens/notice"
	"github.com/ahabook/linguaflow/internal/screens/scene"
	"github.com/ahabook/linguaflow/internal/screens/welcome"
	"github.com/ahabook/linguaflow/internal/store"
	"github.com/ahabook/linguaflow/internal/ui/components"
	"github.com/ahabook/linguaflow/internal/ui/theme"
)

// Options carries what the home screen needs to start scenes.
type Options struct {
	// NewRunner builds a runner for one scene. Nil when no LLM provider
	// is configured; Unavailable then explains why.
	NewRunner   func() (*practice.Runner, error)
	Unavailable string

	EventRepo       store.EventRepo
	Policy          scoring.Policy
	TypewriterDelay time.Duration
}

type bestScoresMsg struct {
	Best map[practice.Difficulty]int
}

// HomeScreen is the main menu: pick a difficulty, browse history or quit.
type HomeScreen struct {
	opts Options
	menu components.Menu
	best map[practice.Difficulty]int
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Refresher = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(opts Options) *HomeScreen {
	h := &HomeScreen{opts: opts, best: map[practice.Difficulty]int{}}
	h.menu = components.NewMenu(h.items())
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadBest()
}

// Refresh reloads best scores when returning from a scene.
func (h *HomeScreen) Refresh() tea.Cmd {
	return h.loadBest()
}

func (h *HomeScreen) loadBest() tea.Cmd {
	repo := h.opts.EventRepo
	if repo == nil {
		return nil
	}
	return func() tea.Msg {
		best := make(map[practice.Difficulty]int)
		for _, d := range practice.AllDifficulties() {
			score, ok, err := repo.BestScore(context.Background(), string(d))
			if err == nil && ok {
				best[d] = score
			}
		}
		return bestScoresMsg{Best: best}
	}
}

func (h *HomeScreen) items() []components.MenuItem {
	var items []components.MenuItem
	for _, d := range practice.AllDifficulties() {
		detail := "no scores yet"
		if score, ok := h.best[d]; ok {
			detail = fmt.Sprintf("best %d (%s)", score, scoring.Grade(score))
		}
		items = append(items, components.MenuItem{
			Label:  d.DisplayName() + " scene",
			Detail: detail,
			Action: func() tea.Cmd { return h.startScene(d) },
		})
	}
	items = append(items,
		components.MenuItem{
			Label:    "History",
			Disabled: h.opts.EventRepo == nil,
			Action: func() tea.Cmd {
				return push(history.New(h.opts.EventRepo))
			},
		},
		components.MenuItem{
			Label:  "Quit",
			Action: func() tea.Cmd { return tea.Quit },
		},
	)
	return items
}

func (h *HomeScreen) startScene(d practice.Difficulty) tea.Cmd {
	if h.opts.NewRunner == nil {
		return push(notice.New("Scene Practice", h.opts.Unavailable))
	}
	runner, err := h.opts.NewRunner()
	if err != nil {
		return push(notice.New("Scene Practice", "Could not start a scene: "+err.Error()))
	}
	return push(scene.New(runner, d, h.opts.TypewriterDelay))
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(bestScoresMsg); ok {
		h.best = msg.Best
		selected := h.menu.Selected
		h.menu = components.NewMenu(h.items())
		h.menu.Selected = selected
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var sections []string

	sections = append(sections,
		welcome.RenderBanner(width),
		theme.Subtitle.Render(welcome.Tagline),
	)

	p := h.opts.Policy
	rules := fmt.Sprintf("Each scene has %d turns. Average %d or more to pass.", p.MaxTurns, p.PassScore)
	sections = append(sections, theme.Hint.Render(rules))

	cw := min(width-4, 60)
	card := theme.Card.Width(cw).Render(strings.TrimRight(h.menu.View(), "\n"))
	sections = append(sections, card)

	if h.opts.NewRunner == nil && h.opts.Unavailable != "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.Warning).
			Width(cw).
			Align(lipgloss.Center).
			Render(h.opts.Unavailable))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, joinWithGaps(sections)...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func joinWithGaps(sections []string) []string {
	out := make([]string, 0, 2*len(sections))
	for i, s := range sections {
		if i > 0 {
			out = append(out, "")
		}
		out = append(out, s)
	}
	return out
}

func (h *HomeScreen) Title() string {
	return "Home"
}
