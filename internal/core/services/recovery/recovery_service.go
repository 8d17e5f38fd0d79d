// Package recovery implements Recovery & Sync (C9, §4.9): resolving
// game_start at startup with config > recovery file > now precedence, and
// assembling the GET /sync response served to clients.
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/ports"
)

// TickSource supplies the live tick state for Sync's tick block.
type TickSource interface {
	CurrentTick() int64
	TickDuration() time.Duration
	Elapsed() time.Duration
	Remaining() time.Duration
}

// Service resolves game_start and builds sync responses.
type Service struct {
	store ports.RecoveryStore
}

// New builds a Service.
func New(store ports.RecoveryStore) *Service {
	return &Service{store: store}
}

// ResolveGameStart implements the precedence of §4.9: an explicit
// config.game.start wins outright (and is persisted so subsequent restarts
// recover it); otherwise the recovery file's prior value is reused; failing
// both, "now" is chosen and persisted as the new anchor.
func (s *Service) ResolveGameStart(ctx context.Context, configured time.Time, hasConfigured bool) (time.Time, error) {
	if hasConfigured {
		if err := s.store.Save(ctx, configured); err != nil {
			return time.Time{}, fmt.Errorf("recovery: persist configured game_start: %w", err)
		}
		return configured, nil
	}

	if started, found, err := s.store.Load(ctx); err != nil {
		return time.Time{}, fmt.Errorf("recovery: load recovery file: %w", err)
	} else if found {
		return started, nil
	}

	now := time.Now()
	if err := s.store.Save(ctx, now); err != nil {
		return time.Time{}, fmt.Errorf("recovery: persist game_start: %w", err)
	}
	return now, nil
}

// SubmitterMode selects which half of SubmitterSyncBlock is populated.
type SubmitterMode struct {
	Delay    time.Duration
	Interval time.Duration
	// Elapsed/Remaining are relative to the mode's own phase (tick-relative
	// for delay mode, game_start-relative for interval mode).
	Elapsed   time.Duration
	Remaining time.Duration
}

// Sync builds the GET /sync response (§4.9).
func (s *Service) Sync(clock TickSource, submitter SubmitterMode) domain.SyncResponse {
	resp := domain.SyncResponse{
		Tick: domain.TickSyncBlock{
			Current:   clock.CurrentTick(),
			Duration:  clock.TickDuration().Seconds(),
			Elapsed:   clock.Elapsed().Seconds(),
			Remaining: clock.Remaining().Seconds(),
		},
		Submitter: domain.SubmitterSyncBlock{
			Elapsed:   submitter.Elapsed.Seconds(),
			Remaining: submitter.Remaining.Seconds(),
		},
	}
	if submitter.Delay > 0 {
		resp.Submitter.Delay = submitter.Delay.Seconds()
	} else {
		resp.Submitter.Interval = submitter.Interval.Seconds()
	}
	return resp
}
