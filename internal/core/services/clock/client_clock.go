package clock

import (
	"context"
	"time"
)

// ClientClock mirrors the server clock: it syncs once at boot, sleeps the
// remaining time of the current tick, then paces subsequent ticks locally
// at tickDuration without further skew correction (§4.1).
type ClientClock struct {
	tickDuration time.Duration
	startTick    int64
	onTick       func(tick int64)
}

// NewClientClock builds a client clock that will start counting from
// startTick (as returned by /sync) once Run begins.
func NewClientClock(tickDuration time.Duration, startTick int64, onTick func(tick int64)) *ClientClock {
	return &ClientClock{
		tickDuration: tickDuration,
		startTick:    startTick,
		onTick:       onTick,
	}
}

// Run sleeps `remaining` before firing the first tick at the next boundary,
// then fires every tickDuration until ctx is cancelled.
func (c *ClientClock) Run(ctx context.Context, remaining time.Duration) {
	if remaining < 0 {
		remaining = 0
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	tick := c.startTick + 1
	if c.onTick != nil {
		c.onTick(tick)
	}

	ticker := time.NewTicker(c.tickDuration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick++
			if c.onTick != nil {
				c.onTick(tick)
			}
		}
	}
}
