package handoff

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingler/v0-jetvision-assistant-sub019/bus"
	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

func TestHandoffBuildsRecordAndPublishes(t *testing.T) {
	b := bus.New()
	c := NewCoordinator(b)

	var received []core.Message
	b.Subscribe(bus.MatchType(core.MessageHandoff), func(m core.Message) {
		received = append(received, m)
	})

	task := core.NewTask("search flights", map[string]any{"request_id": "req-1"})
	rec := c.Handoff("orch-1", "search-1", task, map[string]any{"request_id": "req-1"}, "pipeline step")

	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "orch-1", rec.FromAgentID)
	assert.Equal(t, "search-1", rec.ToAgentID)
	assert.Same(t, task, rec.Task)
	assert.Equal(t, "pipeline step", rec.Reason)
	assert.False(t, rec.CreatedAt.IsZero())

	// Task was stamped and parked, not executed.
	assert.Equal(t, core.TaskPending, task.Status)
	assert.Equal(t, "orch-1", task.SourceAgentID)
	assert.Equal(t, "search-1", task.TargetAgentID)

	require.Len(t, received, 1)
	msg := received[0]
	assert.Equal(t, "orch-1", msg.SourceAgentID)
	assert.Equal(t, "search-1", msg.TargetAgentID)
	assert.Equal(t, rec.ID, msg.Payload["handoff_id"])
	assert.Equal(t, task.ID, msg.Payload["task_id"])
}

func TestEscalateReusesHandoffAndPublishesError(t *testing.T) {
	b := bus.New()
	c := NewCoordinator(b)

	var handoffs, errMsgs []core.Message
	b.Subscribe(bus.MatchType(core.MessageHandoff), func(m core.Message) { handoffs = append(handoffs, m) })
	b.Subscribe(bus.MatchType(core.MessageError), func(m core.Message) { errMsgs = append(errMsgs, m) })

	cause := errors.New("quote backend unreachable")
	rec := c.Escalate("orch-1", "monitor-1", "req-9", cause, map[string]any{"session_id": "sess-1"})

	require.NotNil(t, rec)
	assert.Equal(t, "monitor-1", rec.ToAgentID)
	assert.Equal(t, core.TaskPending, rec.Task.Status)
	assert.Equal(t, "req-9", rec.Task.Payload["request_id"])

	require.Len(t, handoffs, 1)
	require.Len(t, errMsgs, 1)

	errMsg := errMsgs[0]
	assert.Equal(t, "orch-1", errMsg.SourceAgentID)
	assert.Equal(t, "monitor-1", errMsg.TargetAgentID)
	assert.Equal(t, "req-9", errMsg.Payload["request_id"])
	assert.Equal(t, cause.Error(), errMsg.Payload["error"])
	assert.Equal(t, "sess-1", errMsg.Context["session_id"])
}
