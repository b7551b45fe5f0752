package scene

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/scoring"
	"github.com/ahabook/linguaflow/internal/ui/layout"
	"github.com/ahabook/linguaflow/internal/ui/theme"
)

func (s *SceneScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderCentered(width, theme.Error, s.errMsg+"\n\nPress any key to go back.")
	}
	if s.state.Scene == nil {
		return renderCentered(width, theme.TextDim,
			fmt.Sprintf("Setting the scene (%s)...", s.difficulty.DisplayName()))
	}
	if s.confirmQuit {
		return renderCentered(width, theme.Warning,
			"Leave this scene? Progress will not be scored.\n\n[Y] Leave   [N] Keep talking")
	}

	inner := max(20, width-6)
	s.input.SetWidth(inner - 4)

	top := s.renderSceneCard(inner)
	bottom := s.renderFooterArea(inner)

	avail := height - lipgloss.Height(top) - lipgloss.Height(bottom) - 1
	lines := s.conversationLines(inner)
	if avail > 0 && len(lines) > avail {
		lines = lines[len(lines)-avail:]
	}

	return top + "\n" + strings.Join(lines, "\n") + "\n" + bottom
}

func (s *SceneScreen) renderSceneCard(width int) string {
	sc := s.state.Scene
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(sc.Title))
	b.WriteString("  ")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render("[" + sc.Difficulty.DisplayName() + "]"))
	b.WriteString("\n")
	if sc.Context != "" {
		b.WriteString(theme.Hint.Render(strings.Join(layout.Wrap(sc.Context, width), "\n")))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render("Goal: "))
	b.WriteString(theme.Body.Render(sc.Goal))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", width)))
	return "  " + strings.ReplaceAll(b.String(), "\n", "\n  ")
}

// conversationLines renders the transcript. The reply being typed shows
// only its revealed prefix and hides its scores until it is complete.
func (s *SceneScreen) conversationLines(width int) []string {
	var lines []string
	last := len(s.state.Messages) - 1
	for i, m := range s.state.Messages {
		content := m.Content
		typing := i == last && m.Role == practice.RoleAssistant && s.tw.InFlight()
		if typing {
			content = s.tw.Displayed() + "▌"
		}
		lines = append(lines, renderMessage(m.Role, content, width)...)
		if m.Scores != nil && !typing {
			lines = append(lines, "    "+renderScores(*m.Scores, s.turnScoreFor(i)))
			if m.Feedback != "" {
				for _, l := range layout.Wrap(m.Feedback, width-6) {
					lines = append(lines, "    "+theme.Feedback.Render(l))
				}
			}
		}
		lines = append(lines, "")
	}
	if s.pending != "" {
		lines = append(lines, renderMessage(practice.RoleUser, s.pending, width)...)
	}
	return lines
}

// turnScoreFor returns the final score of the turn answered by the message
// at index i, or -1 when it cannot be determined.
func (s *SceneScreen) turnScoreFor(i int) int {
	turn := 0
	for _, m := range s.state.Messages[:i+1] {
		if m.Role == practice.RoleAssistant && m.Scores != nil {
			turn++
		}
	}
	if turn == 0 || turn > len(s.state.TurnScores) {
		return -1
	}
	return s.state.TurnScores[turn-1]
}

func (s *SceneScreen) renderFooterArea(width int) string {
	var b strings.Builder
	b.WriteString(s.renderProgress(width))
	b.WriteString("\n")
	if s.notice != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Warning).Render(strings.Join(layout.Wrap(s.notice, width), "\n")))
		b.WriteString("\n")
	}
	b.WriteString(s.input.View())
	return "  " + strings.ReplaceAll(b.String(), "\n", "\n  ")
}

func (s *SceneScreen) renderProgress(width int) string {
	p := s.runner.Policy()
	var b strings.Builder
	for i := range p.MaxTurns {
		switch {
		case i < len(s.state.TurnScores):
			b.WriteString(theme.Score(s.state.TurnScores[i], "●"))
		case i == s.state.CurrentTurn:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Render("○"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("○"))
		}
		b.WriteString(" ")
	}
	line := b.String() + theme.Hint.Render(fmt.Sprintf("%d turns left", s.state.TurnsRemaining(p)))
	if s.lastTurn != nil && !s.tw.InFlight() {
		line += "   " + theme.Score(s.lastTurn.TurnScore, fmt.Sprintf("last turn %d", s.lastTurn.TurnScore))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

func renderMessage(role practice.Role, content string, width int) []string {
	label := theme.PartnerLabel.Render("Partner")
	if role == practice.RoleUser {
		label = theme.UserLabel.Render("You")
	}
	body := layout.Wrap(content, width-4)
	lines := []string{"  " + label}
	for _, l := range body {
		lines = append(lines, "    "+theme.Body.Render(l))
	}
	return lines
}

func renderScores(d scoring.Dimensions, turnScore int) string {
	parts := []string{
		theme.Score(d.Communication, fmt.Sprintf("Communication %d", d.Communication)),
		theme.Score(d.Accuracy, fmt.Sprintf("Accuracy %d", d.Accuracy)),
		theme.Score(d.Scenario, fmt.Sprintf("Scenario %d", d.Scenario)),
		theme.Score(d.Fluency, fmt.Sprintf("Fluency %d", d.Fluency)),
	}
	line := strings.Join(parts, theme.Hint.Render(" · "))
	if turnScore >= 0 {
		line += theme.Hint.Render("  => ") + theme.Score(turnScore, fmt.Sprintf("%d", turnScore))
	}
	return line
}

func renderCentered(width int, fg color.Color, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(fg).
		Render("\n\n" + text)
}
