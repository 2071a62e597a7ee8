package core

import "time"

// TaskStatus tracks the delegation lifecycle of a handed-off task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task describes a unit of work delegated from one worker to another.
type Task struct {
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	SourceAgentID string         `json:"source_agent_id"`
	TargetAgentID string         `json:"target_agent_id"`
	Status        TaskStatus     `json:"status"`
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewTask creates a task with a fresh id. Source, target and status are set
// by the handoff coordinator.
func NewTask(description string, payload map[string]any) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:          NewID(),
		Description: description,
		Payload:     payload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetStatus updates the task status and bump timestamp.
func (t *Task) SetStatus(s TaskStatus) {
	t.Status = s
	t.UpdatedAt = time.Now().UTC()
}

// HandoffRecord captures a structured delegation between workers. Escalation
// to the error monitor uses the identical mechanism as normal step
// delegation.
type HandoffRecord struct {
	ID          string         `json:"id"`
	FromAgentID string         `json:"from_agent_id"`
	ToAgentID   string         `json:"to_agent_id"`
	Task        *Task          `json:"task"`
	Context     map[string]any `json:"context,omitempty"`
	Reason      string         `json:"reason"`
	CreatedAt   time.Time      `json:"created_at"`
}
