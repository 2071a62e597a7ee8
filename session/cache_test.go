package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

type cachedAgent struct {
	id        string
	shutdowns int
}

func (c *cachedAgent) ID() string                 { return c.id }
func (c *cachedAgent) Type() core.AgentType       { return core.TypeOrchestrator }
func (c *cachedAgent) Name() string               { return "orch" }
func (c *cachedAgent) Status() core.AgentStatus   { return core.StatusIdle }
func (c *cachedAgent) Metrics() core.AgentMetrics { return core.AgentMetrics{} }

func (c *cachedAgent) Initialize(context.Context) error { return nil }

func (c *cachedAgent) Execute(context.Context, *core.ExecutionContext) (*core.ExecutionResult, error) {
	return &core.ExecutionResult{Success: true}, nil
}

func (c *cachedAgent) RegisterTool(core.Tool) error { return nil }

func (c *cachedAgent) Shutdown(context.Context) error {
	c.shutdowns++
	return nil
}

// fakeClock lets tests move time forward deterministically.
type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(t *testing.T, clock *fakeClock, ttl time.Duration) (*Cache, *int) {
	t.Helper()
	built := 0
	c := NewCache(func(sessionID string) (core.Agent, error) {
		built++
		return &cachedAgent{id: core.NewID()}, nil
	}, func(o *Options) {
		o.TTL = ttl
		o.Now = clock.Now
	})
	return c, &built
}

func TestGetOrCreateReturnsIdenticalInstanceWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c, built := newTestCache(t, clock, 30*time.Minute)

	first, err := c.GetOrCreate("sess-1")
	require.NoError(t, err)

	clock.Advance(29 * time.Minute)
	again, err := c.GetOrCreate("sess-1")
	require.NoError(t, err)

	assert.Same(t, first, again)
	assert.Equal(t, 1, *built)
}

func TestDistinctSessionsGetDistinctInstances(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c, built := newTestCache(t, clock, 30*time.Minute)

	a, err := c.GetOrCreate("sess-a")
	require.NoError(t, err)
	b, err := c.GetOrCreate("sess-b")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, *built)
}

func TestAccessRefreshesTTL(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c, built := newTestCache(t, clock, 30*time.Minute)

	first, err := c.GetOrCreate("sess-1")
	require.NoError(t, err)

	// Touch the session every 20 minutes; it must never expire.
	for i := 0; i < 3; i++ {
		clock.Advance(20 * time.Minute)
		assert.Zero(t, c.Sweep(context.Background()))
		again, err := c.GetOrCreate("sess-1")
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
	assert.Equal(t, 1, *built)
}

func TestSweepReclaimsExpiredSessions(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c, built := newTestCache(t, clock, 30*time.Minute)

	first, err := c.GetOrCreate("sess-1")
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	assert.Equal(t, 1, c.Sweep(context.Background()))
	assert.Equal(t, 1, first.(*cachedAgent).shutdowns)

	// Next access constructs a fresh instance.
	second, err := c.GetOrCreate("sess-1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, *built)
}

func TestClearShutsDownAndIsIdempotent(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c, _ := newTestCache(t, clock, 30*time.Minute)

	a, err := c.GetOrCreate("sess-1")
	require.NoError(t, err)

	c.Clear(context.Background(), "sess-1")
	c.Clear(context.Background(), "sess-1")
	c.Clear(context.Background(), "never-existed")

	assert.Equal(t, 1, a.(*cachedAgent).shutdowns)
	count, _ := c.SessionInfo()
	assert.Zero(t, count)
}

func TestClearAll(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c, _ := newTestCache(t, clock, 30*time.Minute)

	a, _ := c.GetOrCreate("sess-a")
	b, _ := c.GetOrCreate("sess-b")

	c.ClearAll(context.Background())

	assert.Equal(t, 1, a.(*cachedAgent).shutdowns)
	assert.Equal(t, 1, b.(*cachedAgent).shutdowns)
	count, _ := c.SessionInfo()
	assert.Zero(t, count)
}

func TestConstructErrorIsNotCached(t *testing.T) {
	boom := errors.New("no provider")
	fail := true
	c := NewCache(func(string) (core.Agent, error) {
		if fail {
			return nil, boom
		}
		return &cachedAgent{id: core.NewID()}, nil
	})

	_, err := c.GetOrCreate("sess-1")
	require.ErrorIs(t, err, boom)

	fail = false
	a, err := c.GetOrCreate("sess-1")
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestSessionInfo(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c, _ := newTestCache(t, clock, 30*time.Minute)

	a, _ := c.GetOrCreate("sess-1")

	count, infos := c.SessionInfo()
	require.Equal(t, 1, count)
	require.Len(t, infos, 1)
	assert.Equal(t, "sess-1", infos[0].SessionID)
	assert.Equal(t, a.ID(), infos[0].AgentID)
	assert.Equal(t, clock.Now(), infos[0].LastAccessedAt)
}

func TestStartSweepIsIdempotent(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c, _ := newTestCache(t, clock, time.Minute)

	require.NoError(t, c.StartSweep("@every 1m"))
	require.NoError(t, c.StartSweep("@every 1m"))
	c.StopSweep()
	c.StopSweep()
}
