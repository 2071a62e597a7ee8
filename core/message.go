package core

import (
	"time"

	"github.com/google/uuid"
)

// MessageType classifies bus notifications.
type MessageType string

const (
	MessageTaskCompleted MessageType = "task_completed"
	MessageError         MessageType = "error"
	MessageHandoff       MessageType = "handoff"
	MessageStatusUpdate  MessageType = "status_update"
)

// Message is the ephemeral unit of cross-cutting notification published on
// the bus. The bus provides in-process fan-out only; durability, if needed,
// is the responsibility of a subscribing external queue.
type Message struct {
	ID            string         `json:"id"`
	Type          MessageType    `json:"type"`
	SourceAgentID string         `json:"source_agent_id"`
	TargetAgentID string         `json:"target_agent_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// NewMessage creates a message with a fresh id and UTC timestamp.
func NewMessage(t MessageType, sourceAgentID string) Message {
	return Message{
		ID:            NewID(),
		Type:          t,
		SourceAgentID: sourceAgentID,
		Timestamp:     time.Now().UTC(),
	}
}

// NewID generates a unique identifier for agents, messages and handoffs.
func NewID() string { return uuid.NewString() }
