// Package submission implements the Submission Scheduler (C8, §4.8): firing
// either on a fixed delay offset within each tick or on a fixed interval
// anchored to game_start, and always serializing overlapping fires so a
// slow submit() never runs concurrently with the next one (§5).
package submission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/ports"
	"github.com/lcalzada-xor/fast/internal/telemetry"
)

// Scheduler runs the submission algorithm of §4.8 on each firing.
type Scheduler struct {
	flags     ports.FlagStore
	events    ports.EventBus
	submitter ports.Submitter
	logger    *slog.Logger

	// fireMu serializes Fire calls: the next scheduled fire waits for the
	// previous one rather than being skipped (§5 "Submission Scheduler
	// mutual exclusion").
	fireMu sync.Mutex
}

// New builds a Scheduler.
func New(flags ports.FlagStore, events ports.EventBus, submitter ports.Submitter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{flags: flags, events: events, submitter: submitter, logger: logger}
}

// Fire executes one submission round (§4.8 steps 1-5). It blocks until any
// concurrently in-flight fire finishes, then runs its own round fully.
func (s *Scheduler) Fire(ctx context.Context, tick int64) {
	s.fireMu.Lock()
	defer s.fireMu.Unlock()

	queued, err := s.flags.QueuedValues(ctx)
	if err != nil {
		s.logger.Error("submission scheduler: read queued flags", "error", err)
		telemetry.SubmissionsTotal.WithLabelValues("failed").Inc()
		return
	}
	if len(queued) == 0 {
		s.events.Publish(domain.Event{
			Kind:      domain.EventSubmitSkip,
			Timestamp: time.Now(),
			Payload:   domain.SubmitSkipPayload{Reason: "no queued flags"},
		})
		telemetry.SubmissionsTotal.WithLabelValues("skipped").Inc()
		return
	}

	values := make([]string, len(queued))
	for i, f := range queued {
		values[i] = f.Value
	}

	s.events.Publish(domain.Event{
		Kind:      domain.EventSubmitStart,
		Timestamp: time.Now(),
		Payload:   domain.SubmitStartPayload{Count: len(values)},
	})

	accepted, rejected, err := s.submitter.Submit(ctx, values)
	if err != nil {
		// Tick-scoped failure (§4.8 "Failure policy"): logged, statuses
		// untouched for this tick.
		s.logger.Error("submission scheduler: submit failed", "tick", tick, "error", err)
		telemetry.SubmissionsTotal.WithLabelValues("failed").Inc()
		return
	}

	missing := 0
	for _, v := range values {
		if _, ok := accepted[v]; ok {
			continue
		}
		if _, ok := rejected[v]; ok {
			continue
		}
		missing++
	}
	if missing > 0 {
		s.logger.Error("submission scheduler: submit response missing values", "tick", tick, "missing", missing)
	}

	if err := s.flags.UpdateStatuses(ctx, accepted, rejected); err != nil {
		s.logger.Error("submission scheduler: update statuses", "tick", tick, "error", fmt.Errorf("%w", err))
		telemetry.SubmissionsTotal.WithLabelValues("failed").Inc()
		return
	}

	telemetry.FlagsSubmittedTotal.WithLabelValues("accepted").Add(float64(len(accepted)))
	telemetry.FlagsSubmittedTotal.WithLabelValues("rejected").Add(float64(len(rejected)))
	if missing > 0 {
		telemetry.FlagsSubmittedTotal.WithLabelValues("missing").Add(float64(missing))
	}
	telemetry.SubmissionsTotal.WithLabelValues("completed").Inc()

	counts, err := s.flags.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("submission scheduler: count by status", "error", err)
	}

	s.events.Publish(domain.Event{
		Kind:      domain.EventSubmitComplete,
		Timestamp: time.Now(),
		Payload: domain.SubmitCompletePayload{
			Accepted: len(accepted),
			Rejected: len(rejected),
			Missing:  missing,
			Counts:   counts,
		},
	})
	s.events.Publish(domain.Event{
		Kind:      domain.EventAnalyticsUpdate,
		Timestamp: time.Now(),
		Payload:   counts,
	})
}

// TickSource supplies tick phase for delay-mode scheduling.
type TickSource interface {
	CurrentTick() int64
	NextBoundary() time.Time
	TickDuration() time.Duration
}

// RunDelayMode fires once per tick, at tick_start+delay (§4.8 "Delay mode").
// It re-derives the next fire time from wall clock on every iteration, so a
// process restart mid-tick still lands on the correct offset.
func (s *Scheduler) RunDelayMode(ctx context.Context, clock TickSource, delay time.Duration) {
	for {
		tickStart := clock.NextBoundary().Add(-clock.TickDuration())
		fireAt := tickStart.Add(delay)
		now := time.Now()
		if fireAt.Before(now) {
			fireAt = clock.NextBoundary().Add(delay)
		}
		wait := fireAt.Sub(now)
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Fire(ctx, clock.CurrentTick())
		}
	}
}

// RunIntervalMode fires every interval seconds, phase-anchored to gameStart
// (§4.8 "Interval mode").
func (s *Scheduler) RunIntervalMode(ctx context.Context, clock TickSource, gameStart time.Time, interval time.Duration) {
	elapsed := time.Since(gameStart)
	if elapsed < 0 {
		elapsed = 0
	}
	sinceLastBoundary := elapsed % interval
	firstWait := interval - sinceLastBoundary
	if firstWait == interval {
		firstWait = 0
	}

	timer := time.NewTimer(firstWait)
	select {
	case <-ctx.Done():
		timer.Stop()
		return
	case <-timer.C:
		s.Fire(ctx, clock.CurrentTick())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Fire(ctx, clock.CurrentTick())
		}
	}
}
