// Package config loads the pipeline's YAML configuration file and applies
// defaults, so deployments tune providers, persistence and retry behavior
// without code changes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LoggerConfig selects log output shape and verbosity.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// LLMConfig selects the completion provider and its parameters.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // anthropic, openai or mock
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`

	// RequestsPerMinute caps outbound completion calls. Zero disables the
	// limiter.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite or memory
	Path   string `yaml:"path"`   // sqlite database file
}

// SessionConfig tunes orchestrator caching.
type SessionConfig struct {
	TTL           Duration `yaml:"ttl"`
	SweepSchedule string   `yaml:"sweep_schedule"`
}

// RetryConfig tunes the per-step retry loop.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
}

// QuotesConfig tunes quote collection.
type QuotesConfig struct {
	// Wait bounds how long the pipeline waits for operator quotes.
	Wait Duration `yaml:"wait"`

	// FailOnZero fails the request when the window closes empty instead of
	// proposing without quotes.
	FailOnZero bool `yaml:"fail_on_zero"`
}

// BreakerConfig tunes the circuit breakers guarding external collaborators.
type BreakerConfig struct {
	Enabled     bool     `yaml:"enabled"`
	MaxFailures uint32   `yaml:"max_failures"`
	Timeout     Duration `yaml:"timeout"`
	Interval    Duration `yaml:"interval"`
}

// Config is the root configuration document.
type Config struct {
	Logger  LoggerConfig  `yaml:"logger"`
	LLM     LLMConfig     `yaml:"llm"`
	Store   StoreConfig   `yaml:"store"`
	Session SessionConfig `yaml:"session"`
	Retry   RetryConfig   `yaml:"retry"`
	Quotes  QuotesConfig  `yaml:"quotes"`
	Breaker BreakerConfig `yaml:"circuit_breaker"`
}

// Default returns the configuration used when no file or field is provided.
func Default() *Config {
	return &Config{
		Logger: LoggerConfig{Level: "info", Format: "json"},
		LLM: LLMConfig{
			Provider:    "anthropic",
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		Store:   StoreConfig{Driver: "sqlite", Path: "jetvision.db"},
		Session: SessionConfig{TTL: Duration(30 * time.Minute), SweepSchedule: "@every 5m"},
		Retry:   RetryConfig{MaxAttempts: 3, InitialDelay: Duration(time.Second)},
		Quotes:  QuotesConfig{Wait: Duration(30 * time.Minute)},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			Timeout:     Duration(30 * time.Second),
			Interval:    Duration(60 * time.Second),
		},
	}
}

// Load reads path, layers it over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects impossible settings early.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "anthropic", "openai", "mock":
	default:
		return fmt.Errorf("llm.provider %q: must be anthropic, openai or mock", c.LLM.Provider)
	}
	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("store.driver %q: must be sqlite or memory", c.Store.Driver)
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store.path required for the sqlite driver")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts %d: must be at least 1", c.Retry.MaxAttempts)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	return nil
}

// LogLevel maps the configured level string onto the logging enum,
// defaulting to info for unknown values.
func (c *Config) LogLevel() logging.LogLevel {
	switch c.Logger.Level {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}
