package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/router"
	"github.com/ahabook/linguaflow/internal/screen"
	"github.com/ahabook/linguaflow/internal/store"
	"github.com/ahabook/linguaflow/internal/ui/layout"
	"github.com/ahabook/linguaflow/internal/ui/theme"
)

// Limit is the number of recent sessions listed.
const Limit = 50

type historyLoadedMsg struct {
	Sessions []store.PracticeSummary
	Err      error
}

type turnsLoadedMsg struct {
	SessionID string
	Turns     []store.TurnRecord
	Err       error
}

// HistoryScreen lists past scenes. Enter expands a scene to its turns.
type HistoryScreen struct {
	eventRepo store.EventRepo
	sessions  []store.PracticeSummary
	turns     map[string][]store.TurnRecord
	selected  int
	expanded  map[int]bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(eventRepo store.EventRepo) *HistoryScreen {
	return &HistoryScreen{
		eventRepo: eventRepo,
		turns:     make(map[string][]store.TurnRecord),
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.eventRepo
	return func() tea.Msg {
		sessions, err := repo.QueryPracticeSummaries(context.Background(), store.QueryOpts{Limit: Limit})
		return historyLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Turns"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.sessions = msg.Sessions
		}
		s.loaded = true
		return s, nil

	case turnsLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.turns[msg.SessionID] = msg.Turns
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			return s, s.toggle()
		}
	}
	return s, nil
}

// toggle expands or collapses the selected session, loading its turns the
// first time it is opened.
func (s *HistoryScreen) toggle() tea.Cmd {
	if s.selected >= len(s.sessions) {
		return nil
	}
	s.expanded[s.selected] = !s.expanded[s.selected]
	id := s.sessions[s.selected].SessionID
	if _, ok := s.turns[id]; ok || !s.expanded[s.selected] {
		return nil
	}
	repo := s.eventRepo
	return func() tea.Msg {
		turns, err := repo.QueryTurns(context.Background(), id)
		return turnsLoadedMsg{SessionID: id, Turns: turns, Err: err}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.sessions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No scenes yet. Start practicing!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sess := range s.sessions {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(prefix + style.Render(sessionLine(sess)) + "  " + outcome(sess))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(s.renderTurns(sess.SessionID, width))
		}
	}

	return b.String()
}

func sessionLine(sess store.PracticeSummary) string {
	date := sess.StartedAt.Local().Format("Jan 02 15:04")
	level := practice.Difficulty(sess.Difficulty).DisplayName()
	mins := sess.DurationSecs / 60
	secs := sess.DurationSecs % 60
	return fmt.Sprintf("%s  %-28s %-12s %d turns  %d:%02d",
		date, truncate(sess.SceneTitle, 28), level, sess.Turns, mins, secs)
}

func outcome(sess store.PracticeSummary) string {
	switch sess.Status {
	case store.StatusCompleted:
		verdict := theme.Fail.Render("not passed")
		if sess.Passed {
			verdict = theme.Pass.Render("passed")
		}
		return theme.Score(sess.FinalScore, fmt.Sprintf("%3d", sess.FinalScore)) + " " + verdict
	case store.StatusAbandoned:
		return theme.Hint.Render("left early")
	default:
		return theme.Hint.Render("in progress")
	}
}

func (s *HistoryScreen) renderTurns(sessionID string, width int) string {
	turns, ok := s.turns[sessionID]
	if !ok {
		return theme.Hint.Render("      Loading turns...") + "\n"
	}
	if len(turns) == 0 {
		return theme.Hint.Render("      No turns recorded") + "\n"
	}

	var b strings.Builder
	inner := max(20, width-14)
	for _, t := range turns {
		head := fmt.Sprintf("      %d. ", t.Turn)
		b.WriteString(head + theme.UserLabel.Render("You: ") +
			theme.Body.Render(truncate(t.Utterance, inner)) + "  " +
			theme.Score(t.TurnScore, fmt.Sprintf("%d", t.TurnScore)))
		if t.NonTargetLanguage {
			b.WriteString(" " + lipgloss.NewStyle().Foreground(theme.Warning).Render("(not English)"))
		}
		b.WriteString("\n")
		if t.Feedback != "" {
			b.WriteString("         " + theme.Feedback.Render(truncate(t.Feedback, inner)) + "\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:max(0, n-1)]) + "…"
}
