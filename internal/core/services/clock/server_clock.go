// Package clock implements the Clock component (C1, §4.1): the server-side
// authoritative tick clock and the client-side mirror that syncs to it.
package clock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/fast/internal/telemetry"
)

// ServerClock is the authoritative tick clock (§4.1). current_tick is
// recomputed from wall-clock at construction and at every boundary firing —
// a process suspended past boundaries loses the missed ticks rather than
// replaying them.
type ServerClock struct {
	gameStart    time.Time
	tickDuration time.Duration
	currentTick  atomic.Int64
	onTick       func(tick int64)
}

// NewServerClock builds a clock anchored at gameStart with the given tick
// duration. onTick is invoked (from the clock's own goroutine) at every
// boundary, after currentTick has been advanced.
func NewServerClock(gameStart time.Time, tickDuration time.Duration, onTick func(tick int64)) *ServerClock {
	c := &ServerClock{
		gameStart:    gameStart,
		tickDuration: tickDuration,
		onTick:       onTick,
	}
	c.currentTick.Store(c.computeTick(time.Now()))
	return c
}

func (c *ServerClock) computeTick(now time.Time) int64 {
	elapsed := now.Sub(c.gameStart)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / c.tickDuration)
}

// CurrentTick returns the tick index in force right now.
func (c *ServerClock) CurrentTick() int64 {
	return c.currentTick.Load()
}

// GameStart returns the anchor instant.
func (c *ServerClock) GameStart() time.Time { return c.gameStart }

// TickDuration returns the configured tick length.
func (c *ServerClock) TickDuration() time.Duration { return c.tickDuration }

// NextBoundary returns the wall-clock instant of the next tick start.
func (c *ServerClock) NextBoundary() time.Time {
	next := c.currentTick.Load() + 1
	return c.gameStart.Add(time.Duration(next) * c.tickDuration)
}

// Elapsed returns time since the current tick started.
func (c *ServerClock) Elapsed() time.Duration {
	tickStart := c.gameStart.Add(time.Duration(c.currentTick.Load()) * c.tickDuration)
	return time.Since(tickStart)
}

// Remaining returns time until the next tick boundary.
func (c *ServerClock) Remaining() time.Duration {
	return time.Until(c.NextBoundary())
}

// Run drives the background timer until ctx is cancelled. If gameStart is
// in the future, the clock is effectively paused: the first firing still
// occurs at gameStart + tickDuration, since computeTick clamps negative
// elapsed time to tick 0 (§4.9 "if in the future, the clock starts paused").
func (c *ServerClock) Run(ctx context.Context) {
	for {
		wait := time.Until(c.NextBoundary())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		now := time.Now()
		newTick := c.computeTick(now)
		if newTick <= c.currentTick.Load() {
			newTick = c.currentTick.Load() + 1
		}
		c.currentTick.Store(newTick)
		telemetry.TicksTotal.Inc()
		if c.onTick != nil {
			c.onTick(newTick)
		}
	}
}
