// Package agent contains the pipeline workers. Each worker implements the
// core.Agent capability interface and wraps either an LLM completion call or
// an external line-of-business tool; the Orchestrator drives them through
// the workflow state machine.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
)

// BaseAgent bundles the identity, status, metrics and tool bookkeeping
// shared by every worker. Embed it in concrete workers and supply an Execute
// method to satisfy core.Agent. All exported methods are goroutine-safe.
type BaseAgent struct {
	id        string
	agentType core.AgentType
	name      string
	logger    logging.Logger

	mu      sync.Mutex
	status  core.AgentStatus
	metrics core.AgentMetrics
	tools   map[string]core.Tool
}

// NewBaseAgent constructs a BaseAgent with a fresh unique id.
func NewBaseAgent(t core.AgentType, name string, logger logging.Logger) BaseAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseAgent{
		id:        core.NewID(),
		agentType: t,
		name:      name,
		logger:    logger,
		status:    core.StatusIdle,
		tools:     make(map[string]core.Tool),
	}
}

// ID returns the globally unique instance identifier.
func (b *BaseAgent) ID() string { return b.id }

// Type returns the worker type tag.
func (b *BaseAgent) Type() core.AgentType { return b.agentType }

// Name returns the human-readable worker name.
func (b *BaseAgent) Name() string { return b.name }

// Status returns the worker's current lifecycle status.
func (b *BaseAgent) Status() core.AgentStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *BaseAgent) setStatus(s core.AgentStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

// Initialize prepares the worker. The base implementation only resets status.
func (b *BaseAgent) Initialize(_ context.Context) error {
	b.setStatus(core.StatusIdle)
	return nil
}

// RegisterTool makes a tool available to the worker. Registering two tools
// with the same name is an error.
func (b *BaseAgent) RegisterTool(t core.Tool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered on agent %s", t.Name(), b.name)
	}
	b.tools[t.Name()] = t
	return nil
}

// Tool returns the registered tool with the given name, if any.
func (b *BaseAgent) Tool(name string) (core.Tool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tools[name]
	return t, ok
}

// Metrics returns a snapshot of the worker's execution counters.
func (b *BaseAgent) Metrics() core.AgentMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metrics
}

// Shutdown releases worker resources. The base implementation only resets
// status and is idempotent.
func (b *BaseAgent) Shutdown(_ context.Context) error {
	b.setStatus(core.StatusIdle)
	return nil
}

// beginExecution marks the worker running.
func (b *BaseAgent) beginExecution() { b.setStatus(core.StatusRunning) }

// endExecution records the outcome of one execution in the metrics and
// resolves the final status.
func (b *BaseAgent) endExecution(usage *core.TokenUsage, toolCalls int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics.Executions++
	b.metrics.ToolCalls += int64(toolCalls)
	b.metrics.LastExecution = time.Now().UTC()
	if usage != nil {
		b.metrics.TokensUsed += int64(usage.TotalTokens)
	}
	if err != nil {
		b.metrics.Failures++
		b.status = core.StatusError
		return
	}
	b.status = core.StatusCompleted
}
