package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingler/v0-jetvision-assistant-sub019/core"
)

func TestPublishFansOutByPredicate(t *testing.T) {
	b := New()

	var errs, handoffs, all int
	b.Subscribe(MatchType(core.MessageError), func(core.Message) { errs++ })
	b.Subscribe(MatchType(core.MessageHandoff), func(core.Message) { handoffs++ })
	b.Subscribe(nil, func(core.Message) { all++ })

	b.Publish(core.NewMessage(core.MessageError, "a-1"))
	b.Publish(core.NewMessage(core.MessageHandoff, "a-1"))
	b.Publish(core.NewMessage(core.MessageHandoff, "a-2"))

	assert.Equal(t, 1, errs)
	assert.Equal(t, 2, handoffs)
	assert.Equal(t, 3, all)
}

func TestMatchTarget(t *testing.T) {
	b := New()

	var got []string
	b.Subscribe(MatchTarget("monitor-1"), func(m core.Message) { got = append(got, m.ID) })

	addressed := core.NewMessage(core.MessageError, "orch-1")
	addressed.TargetAgentID = "monitor-1"
	other := core.NewMessage(core.MessageError, "orch-1")
	other.TargetAgentID = "someone-else"

	b.Publish(addressed)
	b.Publish(other)

	require.Len(t, got, 1)
	assert.Equal(t, addressed.ID, got[0])
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()

	n := 0
	unsubscribe := b.Subscribe(MatchAll, func(core.Message) { n++ })

	b.Publish(core.NewMessage(core.MessageStatusUpdate, "a-1"))
	unsubscribe()
	unsubscribe() // idempotent
	b.Publish(core.NewMessage(core.MessageStatusUpdate, "a-1"))

	assert.Equal(t, 1, n)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestSinglePublisherObservesFIFO(t *testing.T) {
	b := New()

	var order []string
	b.Subscribe(MatchAll, func(m core.Message) { order = append(order, m.ID) })

	var published []string
	for i := 0; i < 10; i++ {
		m := core.NewMessage(core.MessageStatusUpdate, "a-1")
		published = append(published, m.ID)
		b.Publish(m)
	}

	assert.Equal(t, published, order)
}

func TestPanickingHandlerDoesNotStopFanOut(t *testing.T) {
	b := New()

	delivered := 0
	b.Subscribe(MatchAll, func(core.Message) { panic("handler bug") })
	b.Subscribe(MatchAll, func(core.Message) { delivered++ })

	require.NotPanics(t, func() {
		b.Publish(core.NewMessage(core.MessageStatusUpdate, "a-1"))
	})
	assert.Equal(t, 1, delivered)
}

func TestHandlerMayUnsubscribeDuringDelivery(t *testing.T) {
	b := New()

	var unsubscribe func()
	n := 0
	unsubscribe = b.Subscribe(MatchAll, func(core.Message) {
		n++
		unsubscribe()
	})

	b.Publish(core.NewMessage(core.MessageStatusUpdate, "a-1"))
	b.Publish(core.NewMessage(core.MessageStatusUpdate, "a-1"))

	assert.Equal(t, 1, n)
}
