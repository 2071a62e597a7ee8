// Package bus provides the asynchronous-style publish/subscribe channel that
// decouples the orchestrator from downstream consumers. Delivery is
// best-effort, in-process and synchronous within the publishing call: no
// persistence, no retry, no cross-process fan-out. Durability, if required,
// is the responsibility of a subscribing external queue.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
	"github.com/kingler/v0-jetvision-assistant-sub019/logging"
)

// Predicate selects the messages a handler receives.
type Predicate func(core.Message) bool

// Handler consumes a matching message.
type Handler func(core.Message)

// MatchType returns a predicate matching one message type.
func MatchType(t core.MessageType) Predicate {
	return func(m core.Message) bool { return m.Type == t }
}

// MatchTarget returns a predicate matching messages addressed to agentID.
func MatchTarget(agentID string) Predicate {
	return func(m core.Message) bool { return m.TargetAgentID == agentID }
}

// MatchAll accepts every message.
func MatchAll(core.Message) bool { return true }

type subscription struct {
	id        uint64
	predicate Predicate
	handler   Handler
}

// Bus is a goroutine-safe in-process message bus. Handlers run synchronously
// in the publisher's call, so a single publisher observes FIFO delivery.
// Panicking handlers are recovered and logged.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID atomic.Uint64
	logger logging.Logger
}

// Options configures a Bus.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// New creates a message bus.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Bus{logger: opts.Logger}
}

// Publish delivers msg to every subscriber whose predicate matches. The set
// of subscribers is snapshotted before delivery so handlers may unsubscribe
// (or subscribe) without deadlocking.
func (b *Bus) Publish(msg core.Message) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.predicate(msg) {
			continue
		}
		b.dispatch(msg, sub)
	}
}

func (b *Bus) dispatch(msg core.Message, sub subscription) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("message handler panicked", "message_type", string(msg.Type), "panic", r)
		}
	}()
	sub.handler(msg)
}

// Subscribe registers a handler for messages matching predicate and returns
// an unsubscribe function. A nil predicate matches every message.
func (b *Bus) Subscribe(predicate Predicate, handler Handler) func() {
	if predicate == nil {
		predicate = MatchAll
	}
	id := b.nextID.Add(1)
	sub := subscription{id: id, predicate: predicate, handler: handler}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
