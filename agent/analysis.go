package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
	"github.com/kingler/v0-jetvision-assistant-sub019/model"
)

const analysisSystemPrompt = `You extract structured charter-flight requests from client messages.
Respond with a single JSON object and nothing else, using these keys:
departure_airport (ICAO/IATA code), arrival_airport, departure_date (YYYY-MM-DD),
return_date (YYYY-MM-DD or empty), passengers (integer), client_email, notes.
Leave a key empty if the message does not state it. Never invent airports or dates.`

// AnalysisAgent parses the raw intake message into a TripRequest via an LLM
// completion and validates the required fields. Missing required fields are
// a validation error: the pipeline fails immediately without retry.
type AnalysisAgent struct {
	BaseAgent
	svc model.CompletionService
}

// NewAnalysisAgent constructs the intake analysis worker.
func NewAnalysisAgent(svc model.CompletionService, logger logging.Logger) *AnalysisAgent {
	return &AnalysisAgent{
		BaseAgent: NewBaseAgent(core.TypeAnalysis, "intake-analysis", logger),
		svc:       svc,
	}
}

// Execute implements core.Agent. Data carries the parsed *core.TripRequest.
func (a *AnalysisAgent) Execute(ctx context.Context, execCtx *core.ExecutionContext) (*core.ExecutionResult, error) {
	start := time.Now()
	a.beginExecution()

	message, _ := execCtx.Input["message"].(string)
	if message == "" {
		err := core.NewValidationError("message")
		a.endExecution(nil, 0, err)
		return nil, err
	}

	resp, err := a.svc.Complete(ctx, model.Request{
		System:   analysisSystemPrompt,
		Messages: []model.Message{{Role: "user", Content: message}},
	})
	if err != nil {
		a.endExecution(nil, 0, err)
		return nil, fmt.Errorf("analyze intake: %w", err)
	}

	trip, err := parseTrip(resp.Content)
	if err != nil {
		a.endExecution(&resp.Usage, 0, err)
		return nil, fmt.Errorf("analyze intake: %w", err)
	}
	if trip.ClientEmail == "" {
		trip.ClientEmail, _ = execCtx.Input["client_email"].(string)
	}
	trip.ReceivedAt = time.Now().UTC()

	if err := trip.Validate(); err != nil {
		a.endExecution(&resp.Usage, 0, err)
		return nil, err
	}

	a.endExecution(&resp.Usage, 0, nil)
	return &core.ExecutionResult{
		Success:  true,
		Data:     trip,
		Metadata: core.ResultMetadata{ExecutionTime: time.Since(start), TokenUsage: &resp.Usage},
	}, nil
}

// parseTrip decodes the model's JSON reply, tolerating markdown code fences.
func parseTrip(content string) (*core.TripRequest, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	var trip core.TripRequest
	if err := json.Unmarshal([]byte(content), &trip); err != nil {
		return nil, fmt.Errorf("parse trip request: %w", err)
	}
	return &trip, nil
}
