// Package registry provides the process-wide table of live worker instances
// and the factory that constructs them from type tags. Both are explicit
// objects passed by reference into components that need them; there is no
// package-level singleton state.
package registry

import (
	"fmt"
	"sync"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

// Registry is the table of live worker instances keyed by unique id.
// At most one entry exists per id at any time.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]core.Agent
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]core.Agent)}
}

// Register inserts an agent under its id. Registering an id twice fails with
// core.ErrDuplicateAgent and leaves the existing entry untouched.
func (r *Registry) Register(a core.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[a.ID()]; exists {
		return fmt.Errorf("register agent %s: %w", a.ID(), core.ErrDuplicateAgent)
	}
	r.agents[a.ID()] = a
	return nil
}

// Unregister removes the entry for id. It is idempotent: removing an absent
// id is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, id)
}

// Get returns the agent registered under id, or core.ErrAgentNotFound.
func (r *Registry) Get(id string) (core.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("get agent %s: %w", id, core.ErrAgentNotFound)
	}
	return a, nil
}

// ListByType returns all registered agents carrying the given type tag.
func (r *Registry) ListByType(t core.AgentType) []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.Agent
	for _, a := range r.agents {
		if a.Type() == t {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Clear removes all entries. Intended for tests and full resets.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[string]core.Agent)
}
