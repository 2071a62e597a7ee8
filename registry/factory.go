package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

// Constructor builds a worker instance from its configuration.
type Constructor func(cfg core.AgentConfig) (core.Agent, error)

// Factory maps worker type tags to constructors. Every successful Create
// call registers exactly one new instance in the backing registry.
type Factory struct {
	mu           sync.RWMutex
	constructors map[core.AgentType]Constructor
	registry     *Registry
}

// NewFactory constructs a factory backed by the given registry.
func NewFactory(reg *Registry) *Factory {
	return &Factory{
		constructors: make(map[core.AgentType]Constructor),
		registry:     reg,
	}
}

// RegisterType associates a type tag with a constructor. Re-registering a
// tag replaces the previous constructor.
func (f *Factory) RegisterType(t core.AgentType, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[t] = ctor
}

// Create constructs a worker for cfg.Type and registers it. Fails with
// core.ErrUnknownAgentType when no constructor is registered for the tag;
// no registry entry is added on any failure path.
func (f *Factory) Create(cfg core.AgentConfig) (core.Agent, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[cfg.Type]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("create agent of type %q: %w", cfg.Type, core.ErrUnknownAgentType)
	}

	a, err := ctor(cfg)
	if err != nil {
		return nil, fmt.Errorf("construct agent of type %q: %w", cfg.Type, err)
	}
	if err := f.registry.Register(a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAndInitialize constructs, registers and initializes a worker. If
// initialization fails the instance is unregistered again so a failed create
// never leaks a registry entry.
func (f *Factory) CreateAndInitialize(ctx context.Context, cfg core.AgentConfig) (core.Agent, error) {
	a, err := f.Create(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Initialize(ctx); err != nil {
		f.registry.Unregister(a.ID())
		return nil, fmt.Errorf("initialize agent %s: %w", a.ID(), err)
	}
	return a, nil
}

// TypeStatus summarizes the live instances of one worker type.
type TypeStatus struct {
	Type      core.AgentType     `json:"type"`
	Count     int                `json:"count"`
	Statuses  []core.AgentStatus `json:"statuses"`
	Execution int64              `json:"executions"`
}

// Status reports, per registered type tag, how many instances are live and
// their aggregate execution count.
func (f *Factory) Status() []TypeStatus {
	f.mu.RLock()
	types := make([]core.AgentType, 0, len(f.constructors))
	for t := range f.constructors {
		types = append(types, t)
	}
	f.mu.RUnlock()

	out := make([]TypeStatus, 0, len(types))
	for _, t := range types {
		agents := f.registry.ListByType(t)
		ts := TypeStatus{Type: t, Count: len(agents)}
		for _, a := range agents {
			ts.Statuses = append(ts.Statuses, a.Status())
			ts.Execution += a.Metrics().Executions
		}
		out = append(out, ts)
	}
	return out
}
