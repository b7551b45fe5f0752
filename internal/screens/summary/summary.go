package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/router"
	"github.com/ahabook/linguaflow/internal/screen"
	"github.com/ahabook/linguaflow/internal/ui/components"
	"github.com/ahabook/linguaflow/internal/ui/layout"
	"github.com/ahabook/linguaflow/internal/ui/theme"
)

// SummaryScreen displays the result of a finished scene.
type SummaryScreen struct {
	summary *practice.Summary
	again   func() screen.Screen
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen. again builds the screen for another
// scene; when nil, Enter behaves like Esc.
func New(summary *practice.Summary, again func() screen.Screen) *SummaryScreen {
	return &SummaryScreen{summary: summary, again: again}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Scene Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	if s.again == nil {
		return []layout.KeyHint{{Key: "Enter/Esc", Description: "Home"}}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "New scene"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "enter":
			if s.again != nil {
				next := s.again()
				return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
			}
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	if sum == nil {
		return ""
	}

	center := func(str string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, str)
	}

	var b strings.Builder

	b.WriteString(center(theme.Title.Render("Scene complete!")))
	b.WriteString("\n")
	b.WriteString(center(theme.Subtitle.Render(
		fmt.Sprintf("%s · %s", sum.Scene.Title, sum.Scene.Difficulty.DisplayName()))))
	b.WriteString("\n\n")

	score := theme.Score(sum.FinalScore, fmt.Sprintf("%d", sum.FinalScore))
	grade := theme.Score(sum.FinalScore, sum.Grade)
	b.WriteString(center(fmt.Sprintf("Final score %s   Grade %s   %s",
		score, grade, theme.Body.Render(sum.Label))))
	b.WriteString("\n")

	verdict := theme.Fail.Render("Not passed yet. Try the scene again!")
	if sum.Passed {
		verdict = theme.Pass.Render("Passed!")
	}
	b.WriteString(center(verdict))
	b.WriteString("\n\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	b.WriteString(center(theme.Hint.Render(
		fmt.Sprintf("%d turns in %d:%02d", sum.Turns, mins, secs))))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", min(width-8, 60)))
	b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Turns")))
	b.WriteString("\n")
	b.WriteString(center(divider))
	b.WriteString("\n")

	barWidth := min(width-8, 60)
	for i, ts := range sum.TurnScores {
		bar := components.NewScoreBar(fmt.Sprintf("Turn %d %3d", i+1, ts), ts, barWidth)
		b.WriteString(center(bar.View()))
		b.WriteString("\n")
	}

	return b.String()
}
