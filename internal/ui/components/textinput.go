package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/ahabook/linguaflow/internal/ui/theme"
)

// MaxMessageLength caps what a learner can type in one turn.
const MaxMessageLength = 500

// ChatInput wraps bubbles/textinput as the single-line message box.
// While locked it ignores keys and shows a status line instead.
type ChatInput struct {
	Model  textinput.Model
	locked string
}

// NewChatInput creates a focused chat input.
func NewChatInput(placeholder string) ChatInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	ti.CharLimit = MaxMessageLength
	ti.Focus()
	return ChatInput{Model: ti}
}

// Focus returns the cursor blink command.
func (c *ChatInput) Focus() tea.Cmd {
	return c.Model.Focus()
}

// Update forwards messages to the underlying model unless locked.
func (c ChatInput) Update(msg tea.Msg) (ChatInput, tea.Cmd) {
	if c.locked != "" {
		return c, nil
	}
	var cmd tea.Cmd
	c.Model, cmd = c.Model.Update(msg)
	return c, cmd
}

// Lock disables editing and shows status in place of the box.
func (c *ChatInput) Lock(status string) {
	c.locked = status
	c.Model.Blur()
}

// Unlock re-enables editing.
func (c *ChatInput) Unlock() tea.Cmd {
	c.locked = ""
	return c.Model.Focus()
}

// Locked reports whether editing is disabled.
func (c ChatInput) Locked() bool {
	return c.locked != ""
}

// SetWidth sets the visible width of the box.
func (c *ChatInput) SetWidth(w int) {
	c.Model.SetWidth(max(10, w))
}

// SetValue replaces the text, e.g. to restore a message after a failure.
func (c *ChatInput) SetValue(s string) {
	c.Model.SetValue(s)
	c.Model.CursorEnd()
}

// Value returns the current text.
func (c ChatInput) Value() string {
	return c.Model.Value()
}

// Reset clears the text.
func (c *ChatInput) Reset() {
	c.Model.Reset()
}

// View renders the input box.
func (c ChatInput) View() string {
	if c.locked != "" {
		return theme.Hint.Render(c.locked)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(0, 1).
		Render(c.Model.View())
}
