package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryStore is a volatile Store implementation backed by process-local
// maps. Best suited for tests and ephemeral demo setups.
type InMemoryStore struct {
	mu          sync.RWMutex
	requests    map[string]*Request
	transitions map[string][]Transition
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests:    make(map[string]*Request),
		transitions: make(map[string][]Transition),
	}
}

// InsertRequest persists a new request with status "pending".
func (s *InMemoryStore) InsertRequest(_ context.Context, sessionID string, payload map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := NewRequestID()
	now := time.Now().UTC()
	s.requests[id] = &Request{
		ID:        id,
		SessionID: sessionID,
		Status:    "pending",
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id, nil
}

// RecordTransition appends one workflow transition.
func (s *InMemoryStore) RecordTransition(_ context.Context, t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions[t.RequestID] = append(s.transitions[t.RequestID], t)
	return nil
}

// UpdateRequestStatus sets the request status and error message.
func (s *InMemoryStore) UpdateRequestStatus(_ context.Context, requestID, status, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return fmt.Errorf("update request %s: %w", requestID, ErrRequestNotFound)
	}
	r.Status = status
	r.ErrorMessage = errorMessage
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// GetRequest returns a copy of the request record or ErrRequestNotFound.
func (s *InMemoryStore) GetRequest(_ context.Context, requestID string) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("get request %s: %w", requestID, ErrRequestNotFound)
	}
	cp := *r
	return &cp, nil
}

// ListTransitions returns the transitions for a request in insertion order.
func (s *InMemoryStore) ListTransitions(_ context.Context, requestID string) ([]Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.transitions[requestID]
	out := make([]Transition, len(src))
	copy(out, src)
	return out, nil
}
