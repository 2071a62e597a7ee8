// Package tool implements the structured capabilities workers may invoke and
// the external line-of-business collaborators the pipeline consumes (client
// directory, flight marketplace, quote collection, email delivery), each
// treated as an injected strategy with stub implementations and resilience
// decorators.
package tool

import (
	"context"
	"fmt"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// FunctionTool adapts a plain Go function into a core.Tool with declared
// name, description and JSON schema.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool.
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// Name implements core.Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements core.Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements core.Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call implements core.Tool.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	out, err := t.fn(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", t.name, err)
	}
	return out, nil
}

var _ core.Tool = (*FunctionTool)(nil)
