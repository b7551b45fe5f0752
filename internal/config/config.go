// Package config assembles application configuration from defaults, an
// optional YAML file, a .env file and LINGUAFLOW_* environment variables,
// in that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ahabook/linguaflow/internal/coach"
	"github.com/ahabook/linguaflow/internal/llm"
	"github.com/ahabook/linguaflow/internal/scoring"
	"github.com/ahabook/linguaflow/internal/typewriter"
)

// Config holds all application configuration.
type Config struct {
	DBPath     string           `yaml:"db_path"`
	Logging    LoggingConfig    `yaml:"logging"`
	LLM        llm.Config       `yaml:"llm"`
	Coach      coach.Config     `yaml:"coach"`
	Scoring    scoring.Policy   `yaml:"scoring"`
	Typewriter TypewriterConfig `yaml:"typewriter"`
	Server     ServerConfig     `yaml:"server"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json; empty picks per command
}

// TypewriterConfig controls the reveal of assistant replies.
type TypewriterConfig struct {
	Delay time.Duration `yaml:"delay"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	SweepEvery   time.Duration `yaml:"sweep_every"`
	AllowOrigins []string      `yaml:"allow_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging:    LoggingConfig{Level: "info"},
		LLM:        llm.DefaultConfig(),
		Coach:      coach.DefaultConfig(),
		Scoring:    scoring.DefaultPolicy(),
		Typewriter: TypewriterConfig{Delay: typewriter.DefaultDelay},
		Server: ServerConfig{
			Addr:        ":8080",
			SessionTTL:  30 * time.Minute,
			ReadTimeout: 30 * time.Second,
			IdleTimeout: 120 * time.Second,
			SweepEvery:  time.Minute,
		},
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// LINGUAFLOW_CONFIG is consulted. A missing file is only an error when
// the path was given explicitly. A .env file in the working directory is
// loaded without overriding variables that are already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("LINGUAFLOW_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			slog.Debug("config file not found", "path", path)
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(&cfg)
	cfg.LLM = llm.ResolveConfig(cfg.LLM)
	cfg.Scoring.MinTurns = cfg.Scoring.MaxTurns

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	llm.ApplyEnv(&cfg.LLM)

	if v, ok := lookup("DB"); ok {
		cfg.DBPath = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := lookup("ADDR"); ok {
		cfg.Server.Addr = v
	}
	getDuration("SESSION_TTL", &cfg.Server.SessionTTL)
	getDuration("TYPEWRITER_DELAY", &cfg.Typewriter.Delay)
	getInt("HISTORY_TURNS", &cfg.Coach.HistoryTurns)
	getInt("MAX_TOKENS", &cfg.Coach.MaxTokens)
	getInt("PASS_SCORE", &cfg.Scoring.PassScore)
	getInt("MAX_TURNS", &cfg.Scoring.MaxTurns)
	getInt("NON_TARGET_PENALTY", &cfg.Scoring.NonTargetPenalty)
	getBool("STRUCTURED_OUTPUT", &cfg.Coach.StructuredOutput)
}

// Validate checks that all settings are usable. LLM credentials are not
// checked here because commands such as history never call a provider.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.Coach.HistoryTurns < 0 {
		return fmt.Errorf("coach: history_turns must not be negative")
	}
	if c.Coach.MaxTokens <= 0 {
		return fmt.Errorf("coach: max_tokens must be positive")
	}
	if c.Typewriter.Delay < 0 {
		return fmt.Errorf("typewriter: delay must not be negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server: addr cannot be empty")
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server: session_ttl must be positive")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// ParseLevel converts a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

const envPrefix = "LINGUAFLOW_"

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func getInt(key string, dst *int) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid integer", "var", envPrefix+key, "value", v)
		return
	}
	*dst = n
}

func getDuration(key string, dst *time.Duration) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("ignoring invalid duration", "var", envPrefix+key, "value", v)
		return
	}
	*dst = d
}

func getBool(key string, dst *bool) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		slog.Warn("ignoring invalid boolean", "var", envPrefix+key, "value", v)
	}
}
