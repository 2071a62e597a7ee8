package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL.Std())
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  format: text
llm:
  provider: openai
  model: gpt-4o-mini
  requests_per_minute: 120
store:
  driver: memory
session:
  ttl: 45m
retry:
  max_attempts: 5
  initial_delay: 250ms
quotes:
  wait: 10m
  fail_on_zero: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 120, cfg.LLM.RequestsPerMinute)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 45*time.Minute, cfg.Session.TTL.Std())
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialDelay.Std())
	assert.Equal(t, 10*time.Minute, cfg.Quotes.Wait.Std())
	assert.True(t, cfg.Quotes.FailOnZero)
	assert.Equal(t, logging.LogLevelDebug, cfg.LogLevel())

	// Untouched sections keep their defaults.
	assert.Equal(t, "@every 5m", cfg.Session.SweepSchedule)
	assert.True(t, cfg.Breaker.Enabled)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, "llm:\n  provider: carrier-pigeon\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "llm.provider")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "session:\n  ttl: half-an-hour\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRules(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = ""
	assert.ErrorContains(t, cfg.Validate(), "store.path")

	cfg = Default()
	cfg.Retry.MaxAttempts = 0
	assert.ErrorContains(t, cfg.Validate(), "retry.max_attempts")

	cfg = Default()
	cfg.Session.TTL = 0
	assert.ErrorContains(t, cfg.Validate(), "session.ttl")
}

func TestLogLevelFallback(t *testing.T) {
	cfg := Default()
	cfg.Logger.Level = "verbose"
	assert.Equal(t, logging.LogLevelInfo, cfg.LogLevel())
}
