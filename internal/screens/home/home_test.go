package home

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/router"
	"github.com/ahabook/linguaflow/internal/scoring"
	"github.com/ahabook/linguaflow/internal/screens/history"
	"github.com/ahabook/linguaflow/internal/screens/notice"
	"github.com/ahabook/linguaflow/internal/screens/scene"
	"github.com/ahabook/linguaflow/internal/store"
)

type nopScorer struct{}

func (nopScorer) Score(context.Context, practice.TurnRequest) (*practice.Assessment, error) {
	return &practice.Assessment{Reply: "ok"}, nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func enter(t *testing.T, h *HomeScreen) tea.Msg {
	t.Helper()
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func TestHome_StartsSceneAtSelectedDifficulty(t *testing.T) {
	calls := 0
	h := New(Options{
		Policy: scoring.DefaultPolicy(),
		NewRunner: func() (*practice.Runner, error) {
			calls++
			return practice.NewRunner(practice.Options{Policy: scoring.DefaultPolicy(), Scorer: nopScorer{}})
		},
	})

	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	msg, ok := enter(t, h).(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	sc, ok := msg.Screen.(*scene.SceneScreen)
	if !ok {
		t.Fatalf("expected scene screen, got %T", msg.Screen)
	}
	if !strings.Contains(sc.Status(), "Intermediate") {
		t.Errorf("scene status = %q, want intermediate", sc.Status())
	}
	if calls != 1 {
		t.Errorf("runner factory calls = %d", calls)
	}
}

func TestHome_NoProviderShowsNotice(t *testing.T) {
	h := New(Options{Policy: scoring.DefaultPolicy(), Unavailable: "No LLM provider configured."})
	if !strings.Contains(h.View(100, 40), "No LLM provider configured.") {
		t.Error("home should explain why scenes are unavailable")
	}
	msg := enter(t, h).(router.PushScreenMsg)
	if _, ok := msg.Screen.(*notice.NoticeScreen); !ok {
		t.Errorf("expected notice screen, got %T", msg.Screen)
	}
}

func TestHome_RunnerErrorShowsNotice(t *testing.T) {
	h := New(Options{
		Policy:    scoring.DefaultPolicy(),
		NewRunner: func() (*practice.Runner, error) { return nil, errors.New("bad key") },
	})
	msg := enter(t, h).(router.PushScreenMsg)
	if _, ok := msg.Screen.(*notice.NoticeScreen); !ok {
		t.Errorf("expected notice screen, got %T", msg.Screen)
	}
}

func TestHome_HistoryDisabledWithoutStore(t *testing.T) {
	h := New(Options{Policy: scoring.DefaultPolicy()})
	for _, it := range h.menu.Items {
		if it.Label == "History" && !it.Disabled {
			t.Error("history should be disabled without a store")
		}
	}
}

func TestHome_BestScoresAndHistory(t *testing.T) {
	st := openStore(t)
	repo := st.EventRepo()
	ctx := context.Background()
	for _, e := range []store.PracticeEventData{
		{SessionID: "a", Action: store.PracticeStart, SceneTitle: "Cafe", Difficulty: "beginner"},
		{SessionID: "a", Action: store.PracticeEnd, SceneTitle: "Cafe", Difficulty: "beginner", Turns: 5, FinalScore: 91, Passed: true},
	} {
		if err := repo.AppendPracticeEvent(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	h := New(Options{Policy: scoring.DefaultPolicy(), EventRepo: repo})
	h.Update(h.Init()())

	view := h.View(100, 40)
	if !strings.Contains(view, "best 91 (A+)") {
		t.Errorf("view missing best score: %q", view)
	}
	if !strings.Contains(view, "no scores yet") {
		t.Error("untried tiers should say so")
	}

	for range 3 {
		h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	msg := enter(t, h).(router.PushScreenMsg)
	if _, ok := msg.Screen.(*history.HistoryScreen); !ok {
		t.Errorf("expected history screen, got %T", msg.Screen)
	}

	if h.Refresh() == nil {
		t.Error("Refresh should reload scores")
	}
}
