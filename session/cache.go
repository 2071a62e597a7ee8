// Package session maps external session keys to lazily constructed
// orchestrator instances so that repeated requests within one conversation
// reuse the same worker and its accumulated state. Entries expire after a
// period of inactivity; a single background sweep reclaims them.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
)

// DefaultTTL is the inactivity threshold after which a session's
// orchestrator is reclaimed.
const DefaultTTL = 30 * time.Minute

// DefaultSweepSchedule is the cron spec of the reclamation sweep.
const DefaultSweepSchedule = "@every 5m"

// entry pairs a cached orchestrator with its access bookkeeping.
type entry struct {
	agent          core.Agent
	createdAt      time.Time
	lastAccessedAt time.Time
}

// Info describes one cached session for introspection.
type Info struct {
	SessionID      string    `json:"session_id"`
	AgentID        string    `json:"agent_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// Cache is the session-scoped orchestrator cache. All operations are
// goroutine-safe; for a given session id, GetOrCreate within the TTL window
// always returns the identical instance.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	construct func(sessionID string) (core.Agent, error)
	ttl       time.Duration
	now       func() time.Time
	logger    logging.Logger
	cron      *cron.Cron
}

// Options configures a Cache.
type Options struct {
	// TTL is the inactivity threshold. Defaults to DefaultTTL.
	TTL time.Duration

	// SweepSchedule is the cron spec for the background sweep. Defaults to
	// DefaultSweepSchedule.
	SweepSchedule string

	// Now is injectable for TTL tests. Defaults to time.Now.
	Now func() time.Time

	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// NewCache constructs a cache whose misses are filled by construct.
func NewCache(construct func(sessionID string) (core.Agent, error), optFns ...func(o *Options)) *Cache {
	opts := Options{
		TTL:           DefaultTTL,
		SweepSchedule: DefaultSweepSchedule,
		Now:           time.Now,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Cache{
		entries:   make(map[string]*entry),
		construct: construct,
		ttl:       opts.TTL,
		now:       opts.Now,
		logger:    opts.Logger,
	}
}

// GetOrCreate returns the cached orchestrator for sessionID, refreshing its
// last-access timestamp, or constructs, stores and returns a new one on miss.
func (c *Cache) GetOrCreate(sessionID string) (core.Agent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[sessionID]; ok {
		e.lastAccessedAt = now
		return e.agent, nil
	}

	a, err := c.construct(sessionID)
	if err != nil {
		return nil, err
	}
	c.entries[sessionID] = &entry{agent: a, createdAt: now, lastAccessedAt: now}
	c.logger.Debug("session orchestrator created session_id=%s agent_id=%s", sessionID, a.ID())
	return a, nil
}

// Clear shuts the session's orchestrator down and removes the entry.
// Shutdown failures are logged, never propagated. Idempotent.
func (c *Cache) Clear(ctx context.Context, sessionID string) {
	c.mu.Lock()
	e, ok := c.entries[sessionID]
	if ok {
		delete(c.entries, sessionID)
	}
	c.mu.Unlock()

	if ok {
		c.shutdown(ctx, sessionID, e)
	}
}

// ClearAll shuts down and removes every cached session.
func (c *Cache) ClearAll(ctx context.Context) {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for id, e := range entries {
		c.shutdown(ctx, id, e)
	}
}

func (c *Cache) shutdown(ctx context.Context, sessionID string, e *entry) {
	if err := e.agent.Shutdown(ctx); err != nil {
		c.logger.Warn("session orchestrator shutdown failed session_id=%s: %v", sessionID, err)
	}
}

// Sweep removes every entry whose inactivity exceeds the TTL, shutting each
// orchestrator down the same way Clear does. Returns the number reclaimed.
func (c *Cache) Sweep(ctx context.Context) int {
	now := c.now()

	c.mu.Lock()
	var expired []string
	for id, e := range c.entries {
		if now.Sub(e.lastAccessedAt) > c.ttl {
			expired = append(expired, id)
		}
	}
	reclaimed := make(map[string]*entry, len(expired))
	for _, id := range expired {
		reclaimed[id] = c.entries[id]
		delete(c.entries, id)
	}
	c.mu.Unlock()

	for id, e := range reclaimed {
		c.logger.Info("session expired session_id=%s idle=%s", id, now.Sub(e.lastAccessedAt))
		c.shutdown(ctx, id, e)
	}
	return len(reclaimed)
}

// StartSweep schedules the background sweep once. Subsequent calls are
// no-ops until StopSweep.
func (c *Cache) StartSweep(schedule string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	cr := cron.New()
	if _, err := cr.AddFunc(schedule, func() { c.Sweep(context.Background()) }); err != nil {
		return err
	}
	cr.Start()
	c.cron = cr
	return nil
}

// StopSweep stops the background sweep if it is running.
func (c *Cache) StopSweep() {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()
	if cr != nil {
		cr.Stop()
	}
}

// SessionInfo returns the active session count and per-session details.
func (c *Cache) SessionInfo() (int, []Info) {
	c.mu.Lock()
	defer c.mu.Unlock()
	infos := make([]Info, 0, len(c.entries))
	for id, e := range c.entries {
		infos = append(infos, Info{
			SessionID:      id,
			AgentID:        e.agent.ID(),
			CreatedAt:      e.createdAt,
			LastAccessedAt: e.lastAccessedAt,
		})
	}
	return len(infos), infos
}
