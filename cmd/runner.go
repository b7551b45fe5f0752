package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahabook/linguaflow/internal/coach"
	"github.com/ahabook/linguaflow/internal/config"
	"github.com/ahabook/linguaflow/internal/llm"
	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/store"
)

// errNoProvider is returned when neither the configuration nor the caller
// supplies LLM credentials.
var errNoProvider = errors.New("no LLM provider configured")

// runnerFactory builds practice runners over a shared provider, or over a
// per-caller provider when an API key is supplied.
type runnerFactory struct {
	ctx  context.Context
	cfg  *config.Config
	repo store.EventRepo

	// shared is nil when the configuration has no usable credentials.
	shared    llm.Provider
	sharedGen *coach.LLMSceneGenerator
	sharedErr error
}

func newRunnerFactory(ctx context.Context, c *config.Config, repo store.EventRepo) *runnerFactory {
	f := &runnerFactory{ctx: ctx, cfg: c, repo: repo}
	p, err := llm.NewProvider(ctx, c.LLM, repo)
	if err != nil {
		f.sharedErr = fmt.Errorf("%w: %v", errNoProvider, err)
		return f
	}
	f.shared = p
	f.sharedGen = coach.NewSceneGenerator(p, c.Coach)
	return f
}

// Available reports whether runners can be built without a caller key.
func (f *runnerFactory) Available() error {
	return f.sharedErr
}

// New returns a runner. apiKey, when set, replaces the configured
// credential for this runner only.
func (f *runnerFactory) New(apiKey string) (*practice.Runner, error) {
	provider, gen := f.shared, f.sharedGen
	if apiKey != "" {
		p, err := llm.NewProvider(f.ctx, f.cfg.LLM.WithAPIKey(apiKey), f.repo)
		if err != nil {
			return nil, fmt.Errorf("build provider: %w", err)
		}
		provider, gen = p, coach.NewSceneGenerator(p, f.cfg.Coach)
	}
	if provider == nil {
		return nil, f.sharedErr
	}

	return practice.NewRunner(practice.Options{
		Policy:    f.cfg.Scoring,
		Scorer:    coach.NewScorer(provider, f.cfg.Coach),
		Generator: gen,
		Repo:      f.repo,
		Logger:    slog.Default().With("component", "practice"),
	})
}
