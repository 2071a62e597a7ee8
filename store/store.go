// Package store defines the minimal persistence contract the pipeline needs:
// inserting a request, recording workflow transitions and updating request
// status. Two implementations are provided: a SQLite-backed store for
// durability and an in-memory store for tests and ephemeral setups.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrRequestNotFound is returned when no request exists for the given id.
var ErrRequestNotFound = errors.New("request not found")

// Request is the durable record of one proposal request.
type Request struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"session_id"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Transition is one durable row of the workflow history.
type Transition struct {
	RequestID string    `json:"request_id"`
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	AgentID   string    `json:"agent_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the persistence contract consumed by the workflow machine and the
// orchestrator. Implementations must be safe for concurrent use.
type Store interface {
	// InsertRequest persists a new request and returns its id.
	InsertRequest(ctx context.Context, sessionID string, payload map[string]any) (string, error)

	// RecordTransition appends one workflow transition for a request.
	RecordTransition(ctx context.Context, t Transition) error

	// UpdateRequestStatus sets the request's status and optional
	// human-readable error message.
	UpdateRequestStatus(ctx context.Context, requestID, status, errorMessage string) error

	// GetRequest returns the request record or ErrRequestNotFound.
	GetRequest(ctx context.Context, requestID string) (*Request, error)

	// ListTransitions returns the recorded transitions for a request in
	// insertion order.
	ListTransitions(ctx context.Context, requestID string) ([]Transition, error)
}

// NewRequestID returns a lexicographically sortable request id.
func NewRequestID() string { return ulid.Make().String() }
