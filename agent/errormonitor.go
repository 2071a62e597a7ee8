package agent

import (
	"context"
	"sync"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/bus"
	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
)

// Escalation is one failure observed by the monitor.
type Escalation struct {
	RequestID     string
	SourceAgentID string
	Error         string
	ReceivedAt    time.Time
}

// ErrorMonitorAgent is the escalation sink for pipeline failures. It
// subscribes to error messages on the bus, keeps a bounded in-memory log for
// operators, and records escalations in its metrics.
type ErrorMonitorAgent struct {
	BaseAgent

	mu          sync.Mutex
	escalations []Escalation
	unsubscribe func()
}

// maxEscalations bounds the in-memory escalation log.
const maxEscalations = 256

// NewErrorMonitorAgent constructs the monitor and attaches it to b.
func NewErrorMonitorAgent(b *bus.Bus, logger logging.Logger) *ErrorMonitorAgent {
	a := &ErrorMonitorAgent{
		BaseAgent: NewBaseAgent(core.TypeErrorMonitor, "error-monitor", logger),
	}
	a.unsubscribe = b.Subscribe(bus.MatchType(core.MessageError), a.observe)
	return a
}

func (a *ErrorMonitorAgent) observe(msg core.Message) {
	requestID, _ := msg.Payload["request_id"].(string)
	cause, _ := msg.Payload["error"].(string)

	a.mu.Lock()
	a.escalations = append(a.escalations, Escalation{
		RequestID:     requestID,
		SourceAgentID: msg.SourceAgentID,
		Error:         cause,
		ReceivedAt:    time.Now().UTC(),
	})
	if len(a.escalations) > maxEscalations {
		a.escalations = a.escalations[len(a.escalations)-maxEscalations:]
	}
	a.mu.Unlock()

	a.logger.Error("pipeline failure escalated",
		"request_id", requestID,
		"source_agent", msg.SourceAgentID,
		"error", cause)
}

// Execute implements core.Agent. The monitor is reactive; invoking it
// directly is a no-op that reports the current escalation count.
func (a *ErrorMonitorAgent) Execute(_ context.Context, _ *core.ExecutionContext) (*core.ExecutionResult, error) {
	start := time.Now()
	a.beginExecution()
	count := len(a.Escalations())
	a.endExecution(nil, 0, nil)
	return &core.ExecutionResult{
		Success:  true,
		Data:     count,
		Metadata: core.ResultMetadata{ExecutionTime: time.Since(start)},
	}, nil
}

// Escalations returns a copy of the recorded failures, oldest first.
func (a *ErrorMonitorAgent) Escalations() []Escalation {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Escalation, len(a.escalations))
	copy(out, a.escalations)
	return out
}

// Shutdown detaches the monitor from the bus.
func (a *ErrorMonitorAgent) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.mu.Unlock()
	return a.BaseAgent.Shutdown(ctx)
}
