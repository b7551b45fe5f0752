package notice

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/ahabook/linguaflow/internal/router"
)

func TestNotice(t *testing.T) {
	n := New("Scene Practice", "Set ANTHROPIC_API_KEY to start practicing.")
	if n.Title() != "Scene Practice" {
		t.Errorf("Title = %q", n.Title())
	}
	if !strings.Contains(n.View(80, 20), "ANTHROPIC_API_KEY") {
		t.Error("view should show the message")
	}

	if _, cmd := n.Update(tea.KeyPressMsg{Code: 'x', Text: "x"}); cmd != nil {
		t.Error("other keys should be ignored")
	}
	_, cmd := n.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on Enter")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}
