// Package handoff implements the structured task-delegation protocol between
// workers. A handoff constructs a record (source, target, task, context,
// reason), marks the task pending and publishes a notification on the bus;
// it never executes the task itself. Error escalation reuses the identical
// mechanism with the error monitor as target.
package handoff

import (
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/bus"
	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
)

// Coordinator builds handoff records and announces them on the bus.
type Coordinator struct {
	bus    *bus.Bus
	logger logging.Logger
}

// Options configures a Coordinator.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// NewCoordinator constructs a Coordinator publishing on b.
func NewCoordinator(b *bus.Bus, optFns ...func(o *Options)) *Coordinator {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Coordinator{bus: b, logger: opts.Logger}
}

// Handoff delegates task from fromAgentID to toAgentID. The task is marked
// pending and stamped with source and target; a handoff message carrying the
// record is published. Execution is the receiver's responsibility.
func (c *Coordinator) Handoff(fromAgentID, toAgentID string, task *core.Task, context map[string]any, reason string) *core.HandoffRecord {
	task.SourceAgentID = fromAgentID
	task.TargetAgentID = toAgentID
	task.SetStatus(core.TaskPending)

	rec := &core.HandoffRecord{
		ID:          core.NewID(),
		FromAgentID: fromAgentID,
		ToAgentID:   toAgentID,
		Task:        task,
		Context:     context,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}

	msg := core.NewMessage(core.MessageHandoff, fromAgentID)
	msg.TargetAgentID = toAgentID
	msg.Payload = map[string]any{
		"handoff_id": rec.ID,
		"task_id":    task.ID,
		"task":       task.Description,
		"reason":     reason,
	}
	msg.Context = context
	c.bus.Publish(msg)

	c.logger.Debug("handoff from=%s to=%s task=%s reason=%s", fromAgentID, toAgentID, task.ID, reason)
	return rec
}

// Escalate hands a failed request off to the error monitor and publishes an
// error message carrying the request id and failure details.
func (c *Coordinator) Escalate(fromAgentID, monitorAgentID, requestID string, cause error, context map[string]any) *core.HandoffRecord {
	task := core.NewTask("investigate failed proposal request", map[string]any{
		"request_id": requestID,
		"error":      cause.Error(),
	})
	rec := c.Handoff(fromAgentID, monitorAgentID, task, context, "unrecoverable pipeline failure")

	msg := core.NewMessage(core.MessageError, fromAgentID)
	msg.TargetAgentID = monitorAgentID
	msg.Payload = map[string]any{
		"request_id": requestID,
		"error":      cause.Error(),
	}
	msg.Context = context
	c.bus.Publish(msg)
	return rec
}
