package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ahabook/linguaflow/internal/practice"
)

// RunnerFactory builds the runner for a new session. apiKey is the
// caller-supplied provider credential and may be empty.
type RunnerFactory func(apiKey string) (*practice.Runner, error)

type entry struct {
	id       string
	runner   *practice.Runner
	lastSeen atomic.Int64 // unix nanos

	// revealing guards against two reveal streams on one session.
	revealing atomic.Bool
}

// Registry holds independent practice sessions in memory and evicts the
// ones that have been idle longer than the TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// add registers runner under a fresh ID.
func (g *Registry) add(runner *practice.Runner) *entry {
	e := &entry{id: uuid.NewString(), runner: runner}
	e.lastSeen.Store(g.now().UnixNano())

	g.mu.Lock()
	g.sessions[e.id] = e
	g.mu.Unlock()
	return e
}

// get returns the session and marks it as recently used.
func (g *Registry) get(id string) (*entry, bool) {
	g.mu.Lock()
	e, ok := g.sessions[id]
	g.mu.Unlock()
	if ok {
		e.lastSeen.Store(g.now().UnixNano())
	}
	return e, ok
}

// remove drops the session and returns it.
func (g *Registry) remove(id string) (*entry, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.sessions[id]
	delete(g.sessions, id)
	return e, ok
}

// Len returns the number of live sessions.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// Sweep abandons and removes every session idle for longer than the TTL.
// It returns the number evicted.
func (g *Registry) Sweep(ctx context.Context) int {
	cutoff := g.now().Add(-g.ttl).UnixNano()

	g.mu.Lock()
	var expired []*entry
	for id, e := range g.sessions {
		if e.lastSeen.Load() < cutoff && !e.revealing.Load() {
			expired = append(expired, e)
			delete(g.sessions, id)
		}
	}
	g.mu.Unlock()

	for _, e := range expired {
		e.runner.Abandon(ctx)
		slog.Info("evicted idle session", "id", e.id)
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (g *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("session sweeper started", "interval", interval, "ttl", g.ttl)
	for {
		select {
		case <-ticker.C:
			g.Sweep(ctx)
		case <-ctx.Done():
			slog.Info("session sweeper shutting down", "reason", ctx.Err())
			return
		}
	}
}

// Close abandons every session.
func (g *Registry) Close(ctx context.Context) {
	g.mu.Lock()
	all := g.sessions
	g.sessions = make(map[string]*entry)
	g.mu.Unlock()
	for _, e := range all {
		e.runner.Abandon(ctx)
	}
}
