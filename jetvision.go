// Package jetvision is the public entry point of the charter-flight proposal
// pipeline. It assembles an engine from either explicit options or a YAML
// configuration file and re-exports the handful of types callers need.
package jetvision

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/kingler/v0-jetvision-assistant-sub019/config"
	"github.com/kingler/v0-jetvision-assistant-sub019/engine"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
	"github.com/kingler/v0-jetvision-assistant-sub019/model"
	"github.com/kingler/v0-jetvision-assistant-sub019/model/anthropic"
	"github.com/kingler/v0-jetvision-assistant-sub019/model/openai"
	"github.com/kingler/v0-jetvision-assistant-sub019/retry"
	"github.com/kingler/v0-jetvision-assistant-sub019/store"
	"github.com/kingler/v0-jetvision-assistant-sub019/tool"
)

// Engine is the assembled proposal pipeline.
type Engine = engine.Engine

// Options configures an Engine.
type Options = engine.Options

// New constructs an Engine around the given completion service. See
// engine.New.
func New(svc model.CompletionService, optFns ...func(o *Options)) (*Engine, error) {
	return engine.New(svc, optFns...)
}

// NewFromConfig assembles an Engine from a loaded configuration: completion
// provider, persistence driver, retry policy, session lifetime and circuit
// breakers all follow cfg.
func NewFromConfig(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     cfg.LogLevel(),
		Format:    cfg.Logger.Format,
		Component: "jetvision",
	})

	svc, err := completionService(cfg)
	if err != nil {
		return nil, err
	}

	var st store.Store
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	default:
		st = store.NewInMemoryStore()
	}

	return engine.New(svc, func(o *Options) {
		o.Logger = logger
		o.Store = st
		o.Retry = retry.Config{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay.Std(),
		}
		o.QuoteWait = cfg.Quotes.Wait.Std()
		o.FailOnZeroQuotes = cfg.Quotes.FailOnZero
		o.SessionTTL = cfg.Session.TTL.Std()
		o.SweepSchedule = cfg.Session.SweepSchedule
		if cfg.Breaker.Enabled {
			o.Breaker = &tool.BreakerConfig{
				MaxFailures: cfg.Breaker.MaxFailures,
				Timeout:     cfg.Breaker.Timeout.Std(),
				Interval:    cfg.Breaker.Interval.Std(),
			}
		}
	})
}

func completionService(cfg *config.Config) (model.CompletionService, error) {
	var svc model.CompletionService
	switch cfg.LLM.Provider {
	case "anthropic":
		svc = anthropic.NewService(func(o *anthropic.Options) {
			if cfg.LLM.Model != "" {
				o.Model = anthropicsdk.Model(cfg.LLM.Model)
			}
			o.Temperature = cfg.LLM.Temperature
			if cfg.LLM.MaxTokens > 0 {
				o.MaxTokens = cfg.LLM.MaxTokens
			}
		})
	case "openai":
		svc = openai.NewService(func(o *openai.Options) {
			if cfg.LLM.Model != "" {
				o.Model = cfg.LLM.Model
			}
			o.Temperature = cfg.LLM.Temperature
			if cfg.LLM.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.LLM.MaxTokens
			}
		})
	case "mock":
		m := model.NewMockService()
		m.SetFallback("{}")
		svc = m
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	if rpm := cfg.LLM.RequestsPerMinute; rpm > 0 {
		svc = model.NewRateLimited(svc, float64(rpm)/60.0, rpm)
	}
	return svc, nil
}
