package server

import (
	"context"
	"testing"
	"time"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/scoring"
)

type nopScorer struct{}

func (nopScorer) Score(context.Context, practice.TurnRequest) (*practice.Assessment, error) {
	return &practice.Assessment{Reply: "ok"}, nil
}

func newRunner(t *testing.T) *practice.Runner {
	t.Helper()
	r, err := practice.NewRunner(practice.Options{Policy: scoring.DefaultPolicy(), Scorer: nopScorer{}})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	err = r.BeginWith(context.Background(), practice.SceneInfo{Title: "Bank", Difficulty: practice.DifficultyAdvanced})
	if err != nil {
		t.Fatalf("BeginWith: %v", err)
	}
	return r
}

func TestRegistry_SweepEvictsIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewRegistry(10 * time.Minute)
	g.now = func() time.Time { return now }

	stale := g.add(newRunner(t))
	now = now.Add(8 * time.Minute)
	fresh := g.add(newRunner(t))

	now = now.Add(5 * time.Minute)
	if n := g.Sweep(context.Background()); n != 1 {
		t.Fatalf("Sweep evicted %d, want 1", n)
	}
	if _, ok := g.get(stale.id); ok {
		t.Error("stale session should be gone")
	}
	if _, ok := g.get(fresh.id); !ok {
		t.Error("fresh session should remain")
	}
	if got := stale.runner.Snapshot().Phase(); got != practice.PhaseIdle {
		t.Errorf("evicted runner phase = %s, want idle", got)
	}
}

func TestRegistry_GetRefreshesTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewRegistry(10 * time.Minute)
	g.now = func() time.Time { return now }

	e := g.add(newRunner(t))
	now = now.Add(9 * time.Minute)
	g.get(e.id)
	now = now.Add(9 * time.Minute)

	if n := g.Sweep(context.Background()); n != 0 {
		t.Errorf("Sweep evicted %d, want 0", n)
	}
}

func TestRegistry_SweepSkipsActiveReveal(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewRegistry(time.Minute)
	g.now = func() time.Time { return now }

	e := g.add(newRunner(t))
	e.revealing.Store(true)
	now = now.Add(time.Hour)

	if n := g.Sweep(context.Background()); n != 0 {
		t.Errorf("Sweep evicted %d, want 0", n)
	}
}

func TestRegistry_Close(t *testing.T) {
	g := NewRegistry(time.Hour)
	g.add(newRunner(t))
	g.add(newRunner(t))
	g.Close(context.Background())
	if g.Len() != 0 {
		t.Errorf("Len = %d after Close", g.Len())
	}
}

func TestRegistry_Run(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewRegistry(time.Minute)
	g.now = func() time.Time { return now }
	g.add(newRunner(t))
	g.now = func() time.Time { return now.Add(time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for g.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not evict")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
