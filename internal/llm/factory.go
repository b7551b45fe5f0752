package llm

import (
	"context"
	"fmt"

	"github.com/ahabook/linguaflow/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry, logging and timeout
// middleware. eventRepo may be nil, in which case calls are not recorded.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → timeout → retry → logging → base
	p := base
	if eventRepo != nil {
		p = WithLogging(p, cfg.Provider, eventRepo)
	}
	p = WithRetry(p, cfg.Retry)
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}

// NewProviderFromEnv resolves configuration from LINGUAFLOW_* variables,
// falling back to the standard *_API_KEY variables, and builds a Provider.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo) (Provider, error) {
	return NewProvider(ctx, ResolveConfig(ConfigFromEnv()), eventRepo)
}

// ResolveConfig returns cfg unchanged when its provider has credentials.
// Otherwise it tries DiscoverConfig, keeping cfg's retry and timeout.
func ResolveConfig(cfg Config) Config {
	if cfg.Validate() == nil {
		return cfg
	}
	found, ok := DiscoverConfig()
	if !ok {
		return cfg
	}
	found.Retry = cfg.Retry
	found.Timeout = cfg.Timeout
	return found
}
