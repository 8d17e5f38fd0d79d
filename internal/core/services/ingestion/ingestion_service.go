// Package ingestion implements the Ingestion API (C6, §4.6): the shared
// dedup path for enqueue, enqueue-fallback, enqueue-manual, vuln-report and
// exfiltrate, all funnelled through a single FlagStore.Insert call so
// uniqueness-on-value is the only cross-caller invariant (§5).
package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/ports"
	"github.com/lcalzada-xor/fast/internal/core/services/flagmatch"
	"github.com/lcalzada-xor/fast/internal/telemetry"
)

// TickSource supplies the current_tick and tick_duration needed to derive
// a fallback flag's tick from a supplied timestamp (§4.6).
type TickSource interface {
	CurrentTick() int64
	GameStart() time.Time
	TickDuration() time.Duration
}

// Service is the concrete Ingestion API implementation.
type Service struct {
	flags      ports.FlagStore
	events     ports.EventBus
	clock      TickSource
	ownTeam    map[string]struct{}
	flagFormat *regexp.Regexp
}

// New builds a Service. teamIPs is the configured game.team_ip list
// (§9 "Own-team detection": pre-computed once, checked before any insert).
func New(flags ports.FlagStore, events ports.EventBus, clock TickSource, teamIPs []string, flagFormat *regexp.Regexp) *Service {
	own := make(map[string]struct{}, len(teamIPs))
	for _, ip := range teamIPs {
		own[ip] = struct{}{}
	}
	return &Service{flags: flags, events: events, clock: clock, ownTeam: own, flagFormat: flagFormat}
}

func (s *Service) isOwnTeam(target string) bool {
	_, ok := s.ownTeam[target]
	return ok
}

func (s *Service) publishVulnReport(exploit, target, player string) {
	s.events.Publish(domain.Event{
		Kind:      domain.EventVulnerabilityReport,
		Timestamp: time.Now(),
		Payload:   domain.VulnerabilityReportPayload{Exploit: exploit, Target: target, Player: player},
	})
}

// Enqueue implements POST /enqueue (§4.6). A target matching the own-team
// set short-circuits to {own: N} with no insertion (§3 invariant iv).
func (s *Service) Enqueue(ctx context.Context, flags []string, exploit, target, player string) (domain.EnqueueResult, error) {
	if s.isOwnTeam(target) {
		s.publishVulnReport(exploit, target, player)
		telemetry.FlagsEnqueuedTotal.WithLabelValues("own").Add(float64(len(flags)))
		return domain.EnqueueResult{New: []string{}, Duplicates: []string{}, Own: len(flags)}, nil
	}

	tick := s.clock.CurrentTick()
	result, err := s.flags.Insert(ctx, flags, exploit, target, player, tick)
	if err != nil {
		return result, fmt.Errorf("enqueue: %w", err)
	}

	telemetry.FlagsEnqueuedTotal.WithLabelValues("new").Add(float64(len(result.New)))
	telemetry.FlagsEnqueuedTotal.WithLabelValues("duplicate").Add(float64(len(result.Duplicates)))

	s.events.Publish(domain.Event{
		Kind:      domain.EventEnqueue,
		Timestamp: time.Now(),
		Payload: domain.EnqueuePayload{
			Exploit: exploit, Target: target, Player: player,
			New: result.New, Duplicates: result.Duplicates,
		},
	})
	return result, nil
}

// tickForTimestamp derives a fallback flag's tick from a client-authored
// timestamp, floored at zero (§4.6, §9 "Fallback tick assignment",
// §8 "timestamp in the far past yields a non-negative tick").
func (s *Service) tickForTimestamp(ts time.Time) int64 {
	elapsed := ts.Sub(s.clock.GameStart())
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / s.clock.TickDuration())
}

// EnqueueFallback implements POST /enqueue-fallback (§4.6). Each entry's
// tick is derived from its own timestamp when present, else current_tick.
func (s *Service) EnqueueFallback(ctx context.Context, entries []domain.FallbackEntry) (domain.EnqueueResult, error) {
	aggregate := domain.EnqueueResult{New: []string{}, Duplicates: []string{}}

	// Entries are grouped by tick since FlagStore.Insert stamps one tick
	// per call; fallback batches are typically small and same-tick, but
	// correctness must hold even when timestamps span ticks.
	byTick := make(map[int64][]domain.FallbackEntry)
	for _, e := range entries {
		tick := s.clock.CurrentTick()
		if e.Timestamp != nil {
			tick = s.tickForTimestamp(*e.Timestamp)
		}
		byTick[tick] = append(byTick[tick], e)
	}

	for tick, group := range byTick {
		byExploitTarget := make(map[[2]string][]string)
		playerOf := make(map[[2]string]string)
		for _, e := range group {
			key := [2]string{e.Exploit, e.Target}
			byExploitTarget[key] = append(byExploitTarget[key], e.Flag)
			playerOf[key] = e.Player
		}
		for key, values := range byExploitTarget {
			exploit, target := key[0], key[1]
			if s.isOwnTeam(target) {
				s.publishVulnReport(exploit, target, playerOf[key])
				aggregate.Own += len(values)
				continue
			}
			res, err := s.flags.Insert(ctx, values, exploit, target, playerOf[key], tick)
			if err != nil {
				return aggregate, fmt.Errorf("enqueue-fallback: %w", err)
			}
			aggregate.New = append(aggregate.New, res.New...)
			aggregate.Duplicates = append(aggregate.Duplicates, res.Duplicates...)
			s.events.Publish(domain.Event{
				Kind:      domain.EventEnqueueFallback,
				Timestamp: time.Now(),
				Payload: domain.EnqueuePayload{
					Exploit: exploit, Target: target, Player: playerOf[key],
					New: res.New, Duplicates: res.Duplicates,
				},
			})
		}
	}

	telemetry.FlagsEnqueuedTotal.WithLabelValues("new").Add(float64(len(aggregate.New)))
	telemetry.FlagsEnqueuedTotal.WithLabelValues("duplicate").Add(float64(len(aggregate.Duplicates)))
	return aggregate, nil
}

// ManualAction selects enqueue-manual's behavior (§4.6).
type ManualAction string

const (
	ManualEnqueue ManualAction = "enqueue"
	ManualSubmit  ManualAction = "submit"
)

// EnqueueManual implements POST /enqueue-manual (§4.6). ManualSubmit
// invokes the submitter inline before writing anything, so a submitter
// failure creates no flags. The insert and the status update that follows
// are two separate store calls, not one transaction: if the status update
// fails, the inserted flags stay queued.
func (s *Service) EnqueueManual(ctx context.Context, flags []string, player string, action ManualAction, submitter ports.Submitter) (domain.EnqueueResult, error) {
	if action == "" {
		action = ManualEnqueue
	}

	if action == ManualEnqueue {
		return s.Enqueue(ctx, flags, domain.ManualExploit, domain.UnknownTarget, player)
	}

	accepted, rejected, err := submitter.Submit(ctx, flags)
	if err != nil {
		return domain.EnqueueResult{}, fmt.Errorf("enqueue-manual submit: %w", err)
	}

	tick := s.clock.CurrentTick()
	res, err := s.flags.Insert(ctx, flags, domain.ManualExploit, domain.UnknownTarget, player, tick)
	if err != nil {
		return res, fmt.Errorf("enqueue-manual: %w", err)
	}
	if err := s.flags.UpdateStatuses(ctx, accepted, rejected); err != nil {
		return res, fmt.Errorf("enqueue-manual: %w", err)
	}
	return res, nil
}

// VulnReport implements POST /vuln-report: a pure event, no state (§4.6).
func (s *Service) VulnReport(exploit, target, player string) string {
	s.publishVulnReport(exploit, target, player)
	return fmt.Sprintf("vulnerability reported for %s on %s", exploit, target)
}

// Exfiltrate implements the /:webhookId route (§4.6): resolve (exploit,
// player) from the webhook, parse flags from body with flag_format, and
// enqueue them.
func (s *Service) Exfiltrate(ctx context.Context, wh domain.Webhook, body string) (domain.EnqueueResult, error) {
	if wh.Disabled {
		return domain.EnqueueResult{}, domain.ErrWebhookDisabled
	}
	values := flagmatch.Extract(s.flagFormat, body)
	if len(values) == 0 {
		return domain.EnqueueResult{}, nil
	}
	return s.Enqueue(ctx, values, wh.Exploit, domain.UnknownTarget, wh.Player)
}
