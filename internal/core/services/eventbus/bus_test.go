package eventbus

import (
	"testing"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	defer unsub()

	b.Publish(domain.Event{Kind: domain.EventTickStart, Payload: domain.TickStartPayload{Tick: 1}})

	select {
	case evt := <-ch:
		assert.Equal(t, domain.EventTickStart, evt.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_DropsOldestOnSlowSubscriber(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(domain.Event{Kind: domain.EventTickStart, Payload: domain.TickStartPayload{Tick: int64(i)}})
	}

	// The channel never blocks the publisher and retains only the most
	// recent events — the very first one should have been dropped.
	first := <-ch
	payload, ok := first.Payload.(domain.TickStartPayload)
	require.True(t, ok)
	assert.Greater(t, payload.Tick, int64(0))
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	unsub()

	b.Publish(domain.Event{Kind: domain.EventTickStart})

	_, open := <-ch
	assert.False(t, open)
}
