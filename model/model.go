// Package model abstracts the LLM completion services the pipeline workers
// consume. A CompletionService turns a normalized request (system prompt,
// messages, tool definitions) into a single completion with token usage;
// provider adapters live in the anthropic and openai subpackages.
package model

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

// Message is one conversational turn sent to the model.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// Request captures the normalized completion input produced by workers.
type Request struct {
	System   string           `json:"system,omitempty"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// Response is the completed model output.
type Response struct {
	Content   string          `json:"content"`
	ToolCalls []ToolCall      `json:"tool_calls,omitempty"`
	Usage     core.TokenUsage `json:"usage"`
	Model     string          `json:"model"`
}

// Info contains metadata about a completion service implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// CompletionService is the minimal interface workers use to drive generation.
// Implementations raise on transport or provider failure; the retry helper
// around each pipeline step handles transient errors.
type CompletionService interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the service implementation.
	Info() Info
}

// MockService is a lightweight in-memory CompletionService for tests and
// examples. Responses are matched on the last user message.
type MockService struct {
	info      Info
	responses map[string]string
	fallback  string
	calls     int
}

// NewMockService constructs a MockService.
func NewMockService() *MockService {
	return &MockService{
		info:      Info{Name: "mock", Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockService) AddResponse(prompt, response string) { m.responses[prompt] = response }

// SetFallback sets the completion returned for unmatched prompts.
func (m *MockService) SetFallback(response string) { m.fallback = response }

// Calls returns how many completions were requested.
func (m *MockService) Calls() int { return m.calls }

// Complete returns the canned response for the last user message.
func (m *MockService) Complete(_ context.Context, req Request) (*Response, error) {
	m.calls++
	var prompt string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			prompt = req.Messages[i].Content
			break
		}
	}
	content, ok := m.responses[prompt]
	if !ok {
		if m.fallback == "" {
			return nil, fmt.Errorf("mock completion: no response registered for %q", prompt)
		}
		content = m.fallback
	}
	return &Response{
		Content: content,
		Usage:   core.TokenUsage{PromptTokens: len(prompt) / 4, CompletionTokens: len(content) / 4, TotalTokens: (len(prompt) + len(content)) / 4},
		Model:   m.info.Name,
	}, nil
}

// Info implements CompletionService.
func (m *MockService) Info() Info { return m.info }

// RateLimited wraps a CompletionService with a token-bucket limiter so burst
// traffic cannot exceed the provider's request budget.
type RateLimited struct {
	inner   CompletionService
	limiter *rate.Limiter
}

// NewRateLimited allows rps requests per second with the given burst.
func NewRateLimited(inner CompletionService, rps float64, burst int) *RateLimited {
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Complete waits for limiter headroom then delegates.
func (r *RateLimited) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("completion rate limit: %w", err)
	}
	return r.inner.Complete(ctx, req)
}

// Info implements CompletionService.
func (r *RateLimited) Info() Info { return r.inner.Info() }
