package notice

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ahabook/linguaflow/internal/router"
	"github.com/ahabook/linguaflow/internal/screen"
	"github.com/ahabook/linguaflow/internal/ui/theme"
)

// NoticeScreen shows a message that explains why a feature cannot run,
// for example when no LLM provider is configured.
type NoticeScreen struct {
	title   string
	message string
}

var _ screen.Screen = (*NoticeScreen)(nil)

// New creates a new NoticeScreen.
func New(title, message string) *NoticeScreen {
	return &NoticeScreen{title: title, message: message}
}

func (p *NoticeScreen) Init() tea.Cmd {
	return nil
}

func (p *NoticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok && kmsg.String() == "enter" {
		return p, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return p, nil
}

func (p *NoticeScreen) View(width, height int) string {
	body := lipgloss.NewStyle().
		Foreground(theme.Text).
		Width(min(width-4, 70)).
		Align(lipgloss.Center).
		Render(p.message)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(lipgloss.NewStyle().Foreground(theme.Warning).Render("╌╌ "+p.title+" ╌╌") +
			"\n\n" + body + "\n\n" + theme.Hint.Render("press Enter to go back"))
}

func (p *NoticeScreen) Title() string {
	return p.title
}
