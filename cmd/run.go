package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ahabook/linguaflow/internal/app"
	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/screens/home"
)

// runApp opens the store, builds dependencies, and launches the TUI. A
// non-empty level opens a scene at that difficulty straight away.
func runApp(cmd *cobra.Command, level practice.Difficulty) error {
	ctx := cmd.Context()
	st, dbPath, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := openLogFile(dbPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	if _, err := setupLogging(cfg.Logging, "text", logFile); err != nil {
		return err
	}

	eventRepo := st.EventRepo()
	factory := newRunnerFactory(ctx, cfg, eventRepo)

	opts := app.Options{
		Options: home.Options{
			EventRepo:       eventRepo,
			Policy:          cfg.Scoring,
			TypewriterDelay: cfg.Typewriter.Delay,
		},
		Level: level,
	}
	if err := factory.Available(); err != nil {
		slog.Warn("scene practice unavailable", "error", err)
		opts.Unavailable = "No LLM provider is configured. Set ANTHROPIC_API_KEY, OPENAI_API_KEY, " +
			"GEMINI_API_KEY or OPENROUTER_API_KEY (or LINGUAFLOW_LLM_PROVIDER) and restart."
		if level != "" {
			return fmt.Errorf("cannot start a scene: %w", err)
		}
	} else {
		opts.NewRunner = func() (*practice.Runner, error) { return factory.New("") }
	}

	slog.Info("starting tui", "db", dbPath, "provider", cfg.LLM.Provider)
	return app.Run(opts)
}
