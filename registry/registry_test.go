package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

type fakeAgent struct {
	id        string
	agentType core.AgentType
	initErr   error
	initCalls int
}

func (f *fakeAgent) ID() string                 { return f.id }
func (f *fakeAgent) Type() core.AgentType       { return f.agentType }
func (f *fakeAgent) Name() string               { return "fake-" + f.id }
func (f *fakeAgent) Status() core.AgentStatus   { return core.StatusIdle }
func (f *fakeAgent) Metrics() core.AgentMetrics { return core.AgentMetrics{} }

func (f *fakeAgent) Initialize(context.Context) error {
	f.initCalls++
	return f.initErr
}

func (f *fakeAgent) Execute(context.Context, *core.ExecutionContext) (*core.ExecutionResult, error) {
	return &core.ExecutionResult{Success: true}, nil
}

func (f *fakeAgent) RegisterTool(core.Tool) error   { return nil }
func (f *fakeAgent) Shutdown(context.Context) error { return nil }

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()

	a := &fakeAgent{id: "a-1", agentType: core.TypeAnalysis}
	require.NoError(t, reg.Register(a))
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Get("a-1")
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestRegistryDuplicateID(t *testing.T) {
	reg := NewRegistry()

	first := &fakeAgent{id: "a-1", agentType: core.TypeAnalysis}
	require.NoError(t, reg.Register(first))

	err := reg.Register(&fakeAgent{id: "a-1", agentType: core.TypeRanking})
	require.ErrorIs(t, err, core.ErrDuplicateAgent)

	// Existing entry is untouched.
	got, err := reg.Get("a-1")
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("nope")
	assert.ErrorIs(t, err, core.ErrAgentNotFound)
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeAgent{id: "a-1", agentType: core.TypeAnalysis}))

	reg.Unregister("a-1")
	reg.Unregister("a-1")
	reg.Unregister("never-existed")
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryListByType(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeAgent{id: "a-1", agentType: core.TypeAnalysis}))
	require.NoError(t, reg.Register(&fakeAgent{id: "a-2", agentType: core.TypeAnalysis}))
	require.NoError(t, reg.Register(&fakeAgent{id: "r-1", agentType: core.TypeRanking}))

	assert.Len(t, reg.ListByType(core.TypeAnalysis), 2)
	assert.Len(t, reg.ListByType(core.TypeRanking), 1)
	assert.Empty(t, reg.ListByType(core.TypeDelivery))
}

func TestRegistryClear(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeAgent{id: "a-1", agentType: core.TypeAnalysis}))
	require.NoError(t, reg.Register(&fakeAgent{id: "a-2", agentType: core.TypeRanking}))

	reg.Clear()
	assert.Equal(t, 0, reg.Len())
}

func TestFactoryUnknownType(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(reg)

	_, err := f.Create(core.AgentConfig{Type: "martian"})
	require.ErrorIs(t, err, core.ErrUnknownAgentType)
	assert.Equal(t, 0, reg.Len(), "failed create must not register anything")
}

func TestFactoryCreateRegistersExactlyOne(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(reg)

	n := 0
	f.RegisterType(core.TypeAnalysis, func(core.AgentConfig) (core.Agent, error) {
		n++
		return &fakeAgent{id: "a-" + string(rune('0'+n)), agentType: core.TypeAnalysis}, nil
	})

	a, err := f.Create(core.AgentConfig{Type: core.TypeAnalysis})
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestFactoryConstructorError(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(reg)

	boom := errors.New("boom")
	f.RegisterType(core.TypeAnalysis, func(core.AgentConfig) (core.Agent, error) {
		return nil, boom
	})

	_, err := f.Create(core.AgentConfig{Type: core.TypeAnalysis})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, reg.Len())
}

func TestFactoryCreateAndInitialize(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(reg)

	f.RegisterType(core.TypeAnalysis, func(core.AgentConfig) (core.Agent, error) {
		return &fakeAgent{id: "a-1", agentType: core.TypeAnalysis}, nil
	})

	a, err := f.CreateAndInitialize(context.Background(), core.AgentConfig{Type: core.TypeAnalysis})
	require.NoError(t, err)
	assert.Equal(t, 1, a.(*fakeAgent).initCalls)
	assert.Equal(t, 1, reg.Len())
}

func TestFactoryInitializeFailureUnregisters(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(reg)

	f.RegisterType(core.TypeAnalysis, func(core.AgentConfig) (core.Agent, error) {
		return &fakeAgent{id: "a-1", agentType: core.TypeAnalysis, initErr: errors.New("warm-up failed")}, nil
	})

	_, err := f.CreateAndInitialize(context.Background(), core.AgentConfig{Type: core.TypeAnalysis})
	require.Error(t, err)
	assert.Equal(t, 0, reg.Len(), "failed initialize must not leak a registry entry")
}

func TestFactoryStatus(t *testing.T) {
	reg := NewRegistry()
	f := NewFactory(reg)

	f.RegisterType(core.TypeAnalysis, func(core.AgentConfig) (core.Agent, error) {
		return &fakeAgent{id: core.NewID(), agentType: core.TypeAnalysis}, nil
	})
	_, err := f.Create(core.AgentConfig{Type: core.TypeAnalysis})
	require.NoError(t, err)
	_, err = f.Create(core.AgentConfig{Type: core.TypeAnalysis})
	require.NoError(t, err)

	statuses := f.Status()
	require.Len(t, statuses, 1)
	assert.Equal(t, core.TypeAnalysis, statuses[0].Type)
	assert.Equal(t, 2, statuses[0].Count)
}
