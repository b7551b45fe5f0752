package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestMenu_SkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "History", Disabled: true},
		{Label: "Beginner"},
		{Label: "Locked", Disabled: true},
		{Label: "Quit"},
	})
	if m.Selected != 1 {
		t.Fatalf("initial selection = %d, want 1", m.Selected)
	}

	m, _ = m.Update(key(tea.KeyDown))
	if m.Selected != 3 {
		t.Errorf("after down = %d, want 3", m.Selected)
	}
	m, _ = m.Update(key(tea.KeyUp))
	if m.Selected != 1 {
		t.Errorf("after up = %d, want 1", m.Selected)
	}
	m, _ = m.Update(key(tea.KeyUp))
	if m.Selected != 1 {
		t.Errorf("up at top = %d, want 1", m.Selected)
	}
}

func TestMenu_EnterRunsAction(t *testing.T) {
	type picked struct{}
	m := NewMenu([]MenuItem{
		{Label: "Beginner", Action: func() tea.Cmd {
			return func() tea.Msg { return picked{} }
		}},
	})
	_, cmd := m.Update(key(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(picked); !ok {
		t.Error("expected the item's message")
	}
}

func TestMenu_ViewShowsDetail(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "Beginner", Detail: "best 82"}})
	v := m.View()
	if !strings.Contains(v, "Beginner") || !strings.Contains(v, "best 82") {
		t.Errorf("view missing label or detail: %q", v)
	}
}

func TestChatInput_LockIgnoresKeys(t *testing.T) {
	c := NewChatInput("Say something")
	c.SetValue("Hi")
	c.Lock("Sending...")

	c, _ = c.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if c.Value() != "Hi" {
		t.Errorf("locked input changed to %q", c.Value())
	}
	if !strings.Contains(c.View(), "Sending...") {
		t.Error("locked view should show status")
	}

	c.Unlock()
	c, _ = c.Update(tea.KeyPressMsg{Code: '!', Text: "!"})
	if c.Value() != "Hi!" {
		t.Errorf("value = %q, want %q", c.Value(), "Hi!")
	}
}
