package core

import (
	"context"
	"time"
)

// AgentType tags a worker implementation. The factory dispatches on this tag
// to select a constructor, avoiding any inheritance hierarchy.
type AgentType string

// Worker type tags for the proposal pipeline.
const (
	TypeOrchestrator    AgentType = "orchestrator"
	TypeAnalysis        AgentType = "analysis"
	TypeClientData      AgentType = "client_data"
	TypeFlightSearch    AgentType = "flight_search"
	TypeQuoteCollection AgentType = "quote_collection"
	TypeRanking         AgentType = "ranking"
	TypeEmailDraft      AgentType = "email_draft"
	TypeDelivery        AgentType = "delivery"
	TypeErrorMonitor    AgentType = "error_monitor"
)

// AgentStatus reflects the worker's own view of its lifecycle. Only the
// worker itself mutates its status during execution.
type AgentStatus string

const (
	StatusIdle      AgentStatus = "idle"
	StatusRunning   AgentStatus = "running"
	StatusWaiting   AgentStatus = "waiting"
	StatusCompleted AgentStatus = "completed"
	StatusError     AgentStatus = "error"
)

// AgentMetrics aggregates execution counters for a single worker instance.
type AgentMetrics struct {
	Executions    int64     `json:"executions"`
	Failures      int64     `json:"failures"`
	TokensUsed    int64     `json:"tokens_used"`
	ToolCalls     int64     `json:"tool_calls"`
	LastExecution time.Time `json:"last_execution"`
}

// AgentConfig carries construction parameters into a factory constructor.
type AgentConfig struct {
	Type AgentType
	Name string

	// SessionID binds the worker to a conversational session when relevant
	// (orchestrators); empty for stateless specialists.
	SessionID string
}

// Tool is a structured capability a worker may invoke (API call, lookup,
// computation). Implementations live in the tool package; the interface is
// declared here so Agent can reference it without an import cycle.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description explains what the tool does, for LLM guidance.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with schema-shaped arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Agent is the capability interface implemented by every pipeline worker.
//
// Workers wrap either an LLM completion call or an external line-of-business
// tool. They are created by the factory, registered in the registry under a
// unique id, and driven by the orchestrator. Implementations must:
//   - Respect context cancellation on every blocking operation
//   - Mutate their own Status/Metrics and nothing else
//   - Be safe for sequential reuse across requests
type Agent interface {
	// ID returns the globally unique instance identifier.
	ID() string

	// Type returns the worker type tag used for factory dispatch.
	Type() AgentType

	// Name returns the human-readable worker name.
	Name() string

	// Status returns the worker's current lifecycle status.
	Status() AgentStatus

	// Initialize prepares the worker for execution (connection warm-up,
	// prompt assembly). Called once by CreateAndInitialize.
	Initialize(ctx context.Context) error

	// Execute runs the worker's single pipeline step.
	Execute(ctx context.Context, execCtx *ExecutionContext) (*ExecutionResult, error)

	// RegisterTool makes a tool available to the worker.
	RegisterTool(t Tool) error

	// Metrics returns a snapshot of the worker's execution counters.
	Metrics() AgentMetrics

	// Shutdown releases worker resources. Idempotent.
	Shutdown(ctx context.Context) error
}
