package core

import "time"

// ExecutionContext is the mutable, per-request working set threaded through
// the pipeline. The orchestrator owns it; each step reads the fields produced
// by earlier steps and the orchestrator stores the step's output back before
// the next transition. Distinct requests never share a context, so no
// locking is required.
type ExecutionContext struct {
	RequestID string
	SessionID string

	// Input is the raw intake payload (free-form client message plus any
	// structured fields the channel already extracted).
	Input map[string]any

	// Pipeline artifacts, populated in step order.
	Trip     *TripRequest
	Client   *ClientProfile
	Flights  []FlightOption
	Quotes   []Quote
	Ranked   []RankedQuote
	Proposal *ProposalEmail
}

// NewExecutionContext creates a working set for one request.
func NewExecutionContext(requestID, sessionID string, input map[string]any) *ExecutionContext {
	return &ExecutionContext{RequestID: requestID, SessionID: sessionID, Input: input}
}

// TokenUsage captures LLM token consumption for a single completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResultMetadata carries per-step execution measurements.
type ResultMetadata struct {
	ExecutionTime time.Duration `json:"execution_time"`
	TokenUsage    *TokenUsage   `json:"token_usage,omitempty"`
	ToolCalls     int           `json:"tool_calls,omitempty"`
}

// ExecutionResult is the uniform outcome of one worker step.
type ExecutionResult struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata ResultMetadata `json:"metadata"`
}
