package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahabook/linguaflow/internal/config"
)

// setupLogging installs the default slog logger. format overrides the
// configured format when the configuration leaves it empty.
func setupLogging(c config.LoggingConfig, format string, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	if c.Format != "" {
		format = c.Format
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}

// openLogFile opens the log file used while the TUI owns the terminal. It
// lives next to the database.
func openLogFile(dbPath string) (*os.File, error) {
	p := filepath.Join(filepath.Dir(dbPath), "linguaflow.log")
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
