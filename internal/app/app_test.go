package app

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/router"
	"github.com/ahabook/linguaflow/internal/scoring"
	"github.com/ahabook/linguaflow/internal/screens/home"
	"github.com/ahabook/linguaflow/internal/screens/scene"
	"github.com/ahabook/linguaflow/internal/screens/welcome"
)

type nopScorer struct{}

func (nopScorer) Score(context.Context, practice.TurnRequest) (*practice.Assessment, error) {
	return &practice.Assessment{Reply: "ok"}, nil
}

func testOptions() Options {
	return Options{Options: home.Options{
		Policy: scoring.DefaultPolicy(),
		NewRunner: func() (*practice.Runner, error) {
			return practice.NewRunner(practice.Options{Policy: scoring.DefaultPolicy(), Scorer: nopScorer{}})
		},
	}}
}

func TestNewAppModel_StartsOnSplash(t *testing.T) {
	m := newAppModel(testOptions())
	if _, ok := m.router.Active().(*welcome.WelcomeScreen); !ok {
		t.Errorf("expected welcome screen, got %T", m.router.Active())
	}
}

func TestNewAppModel_LevelOpensScene(t *testing.T) {
	opts := testOptions()
	opts.Level = practice.DifficultyAdvanced
	m := newAppModel(opts)

	if m.router.Depth() != 2 {
		t.Fatalf("depth = %d, want 2", m.router.Depth())
	}
	if _, ok := m.router.Active().(*scene.SceneScreen); !ok {
		t.Errorf("expected scene screen, got %T", m.router.Active())
	}
}

func TestEscPopsOrDefers(t *testing.T) {
	opts := testOptions()
	opts.SkipSplash = true
	m := newAppModel(opts)

	// Home alone: Esc does nothing.
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		t.Error("esc on the root screen should be ignored")
	}

	// A scene handles Esc itself (quit confirmation) so the app must not pop it.
	runner, _ := opts.NewRunner()
	m.router.Push(scene.New(runner, practice.DifficultyBeginner, 0))
	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		if _, ok := cmd().(router.PopScreenMsg); !ok {
			t.Error("scene should receive esc")
		}
	}
	if m.router.Depth() != 2 {
		t.Errorf("depth = %d, want 2", m.router.Depth())
	}
}

func TestHints(t *testing.T) {
	opts := testOptions()
	opts.SkipSplash = true
	m := newAppModel(opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(AppModel)
	_ = m.View()

	hints := m.hints(m.router.Active())
	if len(hints) != 3 || hints[0].Description != "Navigate" {
		t.Errorf("home hints = %+v", hints)
	}

	runner, _ := opts.NewRunner()
	sc := scene.New(runner, practice.DifficultyBeginner, 0)
	m.router.Push(sc)
	hints = m.hints(sc)
	if last := hints[len(hints)-1]; last.Key != "Ctrl+C" {
		t.Errorf("screen hints should end with quit, got %+v", hints)
	}
	if !strings.Contains(hints[0].Description, "Send") {
		t.Errorf("scene hints = %+v", hints)
	}
}
