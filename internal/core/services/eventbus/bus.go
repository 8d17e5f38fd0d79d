// Package eventbus implements the Event Bus (C10, §4.10): a broker-less
// publish/subscribe fan-out over per-subscriber channels. Ordering is
// per-publisher FIFO; on subscriber slowness the oldest queued event for
// that subscriber is dropped, never reordered (§9 "Event bus").
package eventbus

import (
	"sync"

	"github.com/lcalzada-xor/fast/internal/core/domain"
)

const subscriberBuffer = 64

// Bus is the concrete, in-process EventBus implementation.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int]chan domain.Event
	nextID      int
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[int]chan domain.Event)}
}

// Publish fans evt out to every current subscriber. A full subscriber
// channel has its oldest event dropped to make room — drop-oldest, never
// reorder.
func (b *Bus) Publish(evt domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			// Slow subscriber: drop the oldest queued event, then enqueue.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function that must be called exactly once when done.
func (b *Bus) Subscribe() (<-chan domain.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan domain.Event, subscriberBuffer)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, unsubscribe
}
