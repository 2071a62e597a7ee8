// Package workflow implements the per-request finite state machine of the
// proposal pipeline. One Instance exists per request id; the Machine owns the
// declared edge set, validates every transition, appends an ordered history
// and mirrors accepted transitions into the durable store.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
	"github.com/kingler/v0-jetvision-assistant-sub019/store"
)

// State enumerates the workflow states of one proposal request.
type State string

// Pipeline states in order, plus the terminal failure state reachable from
// any non-terminal state.
const (
	StateCreated            State = "CREATED"
	StateAnalyzing          State = "ANALYZING"
	StateFetchingClientData State = "FETCHING_CLIENT_DATA"
	StateSearchingFlights   State = "SEARCHING_FLIGHTS"
	StateAwaitingQuotes     State = "AWAITING_QUOTES"
	StateAnalyzingProposals State = "ANALYZING_PROPOSALS"
	StateGeneratingEmail    State = "GENERATING_EMAIL"
	StateSendingProposal    State = "SENDING_PROPOSAL"
	StateCompleted          State = "COMPLETED"
	StateFailed             State = "FAILED"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool { return s == StateCompleted || s == StateFailed }

// forward holds the linear happy-path edges. FAILED is additionally reachable
// from every non-terminal state.
var forward = map[State]State{
	StateCreated:            StateAnalyzing,
	StateAnalyzing:          StateFetchingClientData,
	StateFetchingClientData: StateSearchingFlights,
	StateSearchingFlights:   StateAwaitingQuotes,
	StateAwaitingQuotes:     StateAnalyzingProposals,
	StateAnalyzingProposals: StateGeneratingEmail,
	StateGeneratingEmail:    StateSendingProposal,
	StateSendingProposal:    StateCompleted,
}

// legal reports whether (from, to) is a declared edge.
func legal(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return forward[from] == to
}

// ErrIllegalTransition is the sentinel wrapped by IllegalTransitionError.
var ErrIllegalTransition = errors.New("illegal workflow transition")

// IllegalTransitionError reports a rejected transition attempt. The instance
// is left unmodified.
type IllegalTransitionError struct {
	RequestID string
	From, To  State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("request %s: transition %s -> %s not allowed", e.RequestID, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// TransitionRecord is one append-only history entry.
type TransitionRecord struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	AgentID   string    `json:"agent_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Instance tracks the workflow of one request. All mutation goes through
// Machine.Transition; callers only read.
type Instance struct {
	RequestID string

	mu      sync.RWMutex
	current State
	history []TransitionRecord
}

// Current returns the instance's current state.
func (i *Instance) Current() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.current
}

// Terminal reports whether the instance reached COMPLETED or FAILED.
func (i *Instance) Terminal() bool { return i.Current().Terminal() }

// History returns a copy of the ordered transition log.
func (i *Instance) History() []TransitionRecord {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]TransitionRecord, len(i.history))
	copy(out, i.history)
	return out
}

// Machine validates transitions and tracks active workflow instances. The
// active map is the only shared mutable state; distinct request ids progress
// fully independently.
type Machine struct {
	mu     sync.RWMutex
	active map[string]*Instance

	store  store.Store
	logger logging.Logger
}

// MachineOptions configures a Machine.
type MachineOptions struct {
	// Store receives a durable row for every accepted transition. Nil
	// disables durable mirroring (tests).
	Store store.Store

	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// NewMachine constructs a Machine with optional overrides.
func NewMachine(optFns ...func(o *MachineOptions)) *Machine {
	opts := MachineOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Machine{
		active: make(map[string]*Instance),
		store:  opts.Store,
		logger: opts.Logger,
	}
}

// Create initializes a workflow instance at CREATED for requestID, or
// returns the existing instance when one is already active for that id.
func (m *Machine) Create(requestID string) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.active[requestID]; ok {
		return inst
	}
	inst := &Instance{RequestID: requestID, current: StateCreated}
	m.active[requestID] = inst
	return inst
}

// Get returns the active instance for requestID, if any.
func (m *Machine) Get(requestID string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.active[requestID]
	return inst, ok
}

// Release removes the active-map entry for requestID. The durable record
// remains. Idempotent.
func (m *Machine) Release(requestID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, requestID)
}

// ActiveCount returns the number of in-flight workflows.
func (m *Machine) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Transition moves inst to the target state on behalf of actingAgentID.
//
// The edge is validated against the declared set first; an illegal pair,
// including any move out of a terminal state, returns an
// IllegalTransitionError without mutating the instance. Accepted transitions
// are written to the durable store before the in-memory mutation so the
// history never runs ahead of the record.
func (m *Machine) Transition(ctx context.Context, inst *Instance, to State, actingAgentID string) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	from := inst.current
	if !legal(from, to) {
		return &IllegalTransitionError{RequestID: inst.RequestID, From: from, To: to}
	}

	now := time.Now().UTC()
	if m.store != nil {
		err := m.store.RecordTransition(ctx, store.Transition{
			RequestID: inst.RequestID,
			FromState: string(from),
			ToState:   string(to),
			AgentID:   actingAgentID,
			Timestamp: now,
		})
		if err != nil {
			return fmt.Errorf("persist transition %s -> %s: %w", from, to, err)
		}
	}

	inst.current = to
	inst.history = append(inst.history, TransitionRecord{From: from, To: to, AgentID: actingAgentID, Timestamp: now})
	m.logger.Debug("workflow transition request_id=%s from=%s to=%s agent=%s", inst.RequestID, from, to, actingAgentID)
	return nil
}
