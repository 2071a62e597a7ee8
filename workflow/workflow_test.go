package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingler/v0-jetvision-assistant-sub019/store"
)

var happyPath = []State{
	StateAnalyzing,
	StateFetchingClientData,
	StateSearchingFlights,
	StateAwaitingQuotes,
	StateAnalyzingProposals,
	StateGeneratingEmail,
	StateSendingProposal,
	StateCompleted,
}

func TestHappyPathTransitions(t *testing.T) {
	m := NewMachine()
	inst := m.Create("req-1")
	assert.Equal(t, StateCreated, inst.Current())

	for _, next := range happyPath {
		require.NoError(t, m.Transition(context.Background(), inst, next, "agent-1"))
		assert.Equal(t, next, inst.Current())
	}

	history := inst.History()
	require.Len(t, history, len(happyPath))
	assert.Equal(t, StateCreated, history[0].From)
	assert.Equal(t, StateCompleted, history[len(history)-1].To)
	for i := 1; i < len(history); i++ {
		assert.Equal(t, history[i-1].To, history[i].From, "history must chain")
	}
	assert.True(t, inst.Terminal())
}

func TestIllegalTransitionLeavesInstanceUntouched(t *testing.T) {
	m := NewMachine()
	inst := m.Create("req-1")

	err := m.Transition(context.Background(), inst, StateSearchingFlights, "agent-1")
	require.ErrorIs(t, err, ErrIllegalTransition)

	var ite *IllegalTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "req-1", ite.RequestID)
	assert.Equal(t, StateCreated, ite.From)
	assert.Equal(t, StateSearchingFlights, ite.To)

	assert.Equal(t, StateCreated, inst.Current())
	assert.Empty(t, inst.History())
}

func TestFailedReachableFromEveryNonTerminalState(t *testing.T) {
	nonTerminal := append([]State{StateCreated}, happyPath[:len(happyPath)-1]...)

	for _, from := range nonTerminal {
		m := NewMachine()
		inst := m.Create("req-" + string(from))
		inst.current = from

		require.NoError(t, m.Transition(context.Background(), inst, StateFailed, "orch-1"), "from %s", from)
		assert.Equal(t, StateFailed, inst.Current())
	}
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	for _, terminal := range []State{StateCompleted, StateFailed} {
		m := NewMachine()
		inst := m.Create("req-1")
		inst.current = terminal

		for _, to := range append(happyPath, StateFailed, StateCreated) {
			err := m.Transition(context.Background(), inst, to, "agent-1")
			assert.ErrorIs(t, err, ErrIllegalTransition, "%s -> %s", terminal, to)
		}
		assert.Equal(t, terminal, inst.Current())
		assert.Empty(t, inst.History())
	}
}

func TestSkippingAStateIsIllegal(t *testing.T) {
	m := NewMachine()
	inst := m.Create("req-1")
	require.NoError(t, m.Transition(context.Background(), inst, StateAnalyzing, "a"))

	err := m.Transition(context.Background(), inst, StateSearchingFlights, "a")
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StateAnalyzing, inst.Current())
	assert.Len(t, inst.History(), 1)
}

func TestCreateReturnsExistingInstance(t *testing.T) {
	m := NewMachine()
	first := m.Create("req-1")
	require.NoError(t, m.Transition(context.Background(), first, StateAnalyzing, "a"))

	again := m.Create("req-1")
	assert.Same(t, first, again)
	assert.Equal(t, StateAnalyzing, again.Current())
}

func TestReleaseRemovesActiveEntry(t *testing.T) {
	m := NewMachine()
	m.Create("req-1")
	m.Create("req-2")
	assert.Equal(t, 2, m.ActiveCount())

	m.Release("req-1")
	m.Release("req-1")
	assert.Equal(t, 1, m.ActiveCount())

	_, ok := m.Get("req-1")
	assert.False(t, ok)
}

func TestTransitionsMirroredToStore(t *testing.T) {
	st := store.NewInMemoryStore()
	m := NewMachine(func(o *MachineOptions) { o.Store = st })

	ctx := context.Background()
	id, err := st.InsertRequest(ctx, "sess-1", nil)
	require.NoError(t, err)

	inst := m.Create(id)
	require.NoError(t, m.Transition(ctx, inst, StateAnalyzing, "agent-1"))
	require.NoError(t, m.Transition(ctx, inst, StateFailed, "orch-1"))

	rows, err := st.ListTransitions(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, string(StateCreated), rows[0].FromState)
	assert.Equal(t, string(StateAnalyzing), rows[0].ToState)
	assert.Equal(t, "agent-1", rows[0].AgentID)
	assert.Equal(t, string(StateFailed), rows[1].ToState)
}

func TestIndependentRequestsProgressIndependently(t *testing.T) {
	m := NewMachine()
	a := m.Create("req-a")
	b := m.Create("req-b")

	require.NoError(t, m.Transition(context.Background(), a, StateAnalyzing, "x"))
	require.NoError(t, m.Transition(context.Background(), a, StateFetchingClientData, "x"))

	assert.Equal(t, StateCreated, b.Current())
	assert.Empty(t, b.History())
}
