// Package runner implements the Exploit Launcher (C2, §4.2) and Exploit
// Session (C3, §4.3): per-tick dispatch of exploit definitions against
// resolved targets, with batching, timeout discipline, and the Flag
// Matcher & Enqueuer (C4, §4.4) wired in as the worker's completion path.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/ports"
	"github.com/lcalzada-xor/fast/internal/core/services/flagmatch"
	"github.com/lcalzada-xor/fast/internal/core/services/targets"
	"github.com/lcalzada-xor/fast/internal/telemetry"
)

const snippetLen = 120

// flagIDCollector is an optional capability an ExploitRunner may implement
// when its module exposes collect_flag_ids (§4.3 step 2). The mechanism
// itself is treated as an external/pluggable collaborator; Session only
// needs to know whether to ask for it.
type flagIDCollector interface {
	CollectFlagIDs(ctx context.Context, def domain.ExploitDefinition, host string) ([]string, error)
}

// Session runs one ExploitDefinition's attacks for one tick (§4.3).
type Session struct {
	Runner     ports.ExploitRunner
	Client     ports.ServerClient
	Fallback   ports.FallbackStore
	Memos      *MemoSet
	Logger     *slog.Logger
	FileLog    *FileLogger
	Player     string
	FlagFormat *regexp.Regexp
}

// MemoSet hands out one AttackMemo per exploit name, created on first use.
type MemoSet struct {
	byExploit map[string]*AttackMemo
}

// NewMemoSet builds an empty set.
func NewMemoSet() *MemoSet {
	return &MemoSet{byExploit: make(map[string]*AttackMemo)}
}

func (m *MemoSet) For(exploit string) *AttackMemo {
	if memo, ok := m.byExploit[exploit]; ok {
		return memo
	}
	memo := NewAttackMemo()
	m.byExploit[exploit] = memo
	return memo
}

// Run executes the full algorithm of §4.3 for one definition. teamHosts and
// ownTeamIPs back the `targets: [auto]` resolution path.
func (s *Session) Run(ctx context.Context, def domain.ExploitDefinition, teamHosts []string, ownTeamIPs map[string]struct{}) {
	logger := s.Logger.With("exploit", def.Name)

	// Step 1: target resolution.
	var hosts []string
	if def.UsesAutoTargets() {
		hosts = targets.ResolveAuto(teamHosts, ownTeamIPs)
	} else {
		hosts = targets.ExpandAll(def.Targets)
	}
	if len(hosts) == 0 {
		logger.Debug("exploit session: no targets, no-op")
		return
	}

	memo := s.Memos.For(def.Name)

	// Step 2: flag-id enrichment (optional, collaborator-provided).
	attacks := s.buildAttacks(ctx, def, hosts, memo, logger)
	if len(attacks) == 0 {
		logger.Debug("exploit session: all attacks already completed per memo")
		return
	}

	// Step 3: delay.
	if def.Delay > 0 {
		select {
		case <-time.After(time.Duration(def.Delay * float64(time.Second))):
		case <-ctx.Done():
			return
		}
	}

	// Step 4: prepare hook.
	if def.Prepare != "" {
		if err := s.Runner.RunHook(ctx, def, def.Prepare); err != nil {
			logger.Warn("exploit session: prepare hook failed", "error", err)
			s.FileLog.Write(def.Name, "*", "WARN", fmt.Sprintf("prepare hook failed: %v", err))
		}
	}

	// Step 5+6: dispatch in batches, each with its own aggregate deadline.
	timeout := time.Duration(def.EffectiveTimeout()) * time.Second
	batches := partitionBatches(attacks, def.Batches)
	wait := time.Duration(0)
	if def.Batches != nil {
		wait = time.Duration(def.Batches.Wait * float64(time.Second))
	}

	for i, batch := range batches {
		s.runBatch(ctx, def, batch, timeout, s.FlagFormat, memo, logger)
		if i < len(batches)-1 && wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
		}
	}

	// Step 7: cleanup hook, once after every batch has settled.
	if def.Cleanup != "" {
		if err := s.Runner.RunHook(ctx, def, def.Cleanup); err != nil {
			logger.Warn("exploit session: cleanup hook failed", "error", err)
			s.FileLog.Write(def.Name, "*", "WARN", fmt.Sprintf("cleanup hook failed: %v", err))
		}
	}
}

func (s *Session) buildAttacks(ctx context.Context, def domain.ExploitDefinition, hosts []string, memo *AttackMemo, logger *slog.Logger) []domain.Attack {
	collector, ok := s.Runner.(flagIDCollector)
	if !ok {
		attacks := make([]domain.Attack, len(hosts))
		for i, h := range hosts {
			attacks[i] = domain.Attack{Host: h}
		}
		return attacks
	}

	var attacks []domain.Attack
	for _, h := range hosts {
		ids, err := collector.CollectFlagIDs(ctx, def, h)
		if err != nil {
			logger.Warn("exploit session: collect_flag_ids failed", "host", h, "error", err)
			attacks = append(attacks, domain.Attack{Host: h})
			continue
		}
		for _, id := range ids {
			if memo.Done(h, id) {
				continue
			}
			attacks = append(attacks, domain.Attack{Host: h, FlagID: id})
		}
	}
	return attacks
}

type workerResult struct {
	attack domain.Attack
	output string
	err    error
}

func (s *Session) runBatch(ctx context.Context, def domain.ExploitDefinition, batch []domain.Attack, timeout time.Duration, flagFormat *regexp.Regexp, memo *AttackMemo, logger *slog.Logger) {
	results := make(chan workerResult, len(batch))
	for _, attack := range batch {
		go s.runWorker(ctx, def, attack, results)
	}

	pending := make(map[domain.Attack]struct{}, len(batch))
	for _, a := range batch {
		pending[a] = struct{}{}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for len(pending) > 0 {
		select {
		case r := <-results:
			delete(pending, r.attack)
			s.handleWorkerResult(ctx, def, r, flagFormat, memo, logger)
		case <-deadline.C:
			for a := range pending {
				logger.Warn("exploit session: timeout", "host", a.Host, "timeout_seconds", def.EffectiveTimeout())
				s.FileLog.Write(def.Name, a.Host, "ERROR", fmt.Sprintf("exploit took longer than %d seconds for host %s", def.EffectiveTimeout(), a.Host))
				telemetry.ExploitTimeoutsTotal.WithLabelValues(def.Name).Inc()
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

// runWorker invokes one attack (§4.3 step 6). Panics from the underlying
// ExploitRunner are caught and logged; they never propagate.
func (s *Session) runWorker(ctx context.Context, def domain.ExploitDefinition, attack domain.Attack, results chan<- workerResult) {
	defer func() {
		if r := recover(); r != nil {
			results <- workerResult{attack: attack, err: fmt.Errorf("panic: %v", r)}
		}
	}()
	telemetry.ExploitSessionsTotal.WithLabelValues(def.Name).Inc()
	output, err := s.Runner.Run(ctx, def, attack.Host, attack.FlagID)
	results <- workerResult{attack: attack, output: output, err: err}
}

func (s *Session) handleWorkerResult(ctx context.Context, def domain.ExploitDefinition, r workerResult, flagFormat *regexp.Regexp, memo *AttackMemo, logger *slog.Logger) {
	if r.err != nil {
		logger.Warn("exploit session: attack error", "host", r.attack.Host, "error", r.err)
		s.FileLog.Write(def.Name, r.attack.Host, "ERROR", r.err.Error())
		return
	}

	flags := flagmatch.Extract(flagFormat, r.output)
	if len(flags) == 0 {
		snippet := r.output
		if len(snippet) > snippetLen {
			snippet = snippet[:snippetLen]
		}
		logger.Warn("exploit session: no flags", "host", r.attack.Host, "output_snippet", snippet)
		s.FileLog.Write(def.Name, r.attack.Host, "WARN", fmt.Sprintf("no flags matched: %s", snippet))
		return
	}

	s.enqueue(ctx, flags, def.Name, r.attack.Host, logger)

	// Step 8: memo update for successfully completed flag-id attacks.
	if r.attack.FlagID != "" {
		memo.Mark(r.attack.Host, r.attack.FlagID)
	}
}

// enqueue is the Flag Matcher & Enqueuer's submission half (§4.4): call the
// server, and on network failure fall back to the local durable store.
func (s *Session) enqueue(ctx context.Context, flags []string, exploit, target string, logger *slog.Logger) {
	res, err := s.Client.Enqueue(ctx, flags, exploit, target, s.Player)
	if err != nil {
		now := time.Now()
		for _, f := range flags {
			if ferr := s.Fallback.Enqueue(ctx, f, exploit, target, now); ferr != nil {
				logger.Error("exploit session: fallback store write failed", "error", ferr)
			}
		}
		logger.Warn("exploit session: server unreachable, flags queued to fallback store", "count", len(flags))
		return
	}

	if res.Own > 0 {
		logger.Warn("exploit session: target is own team, flags not inserted", "target", target, "count", res.Own)
	}
	if len(res.New) > 0 || len(res.Duplicates) > 0 {
		logger.Info("exploit session: enqueued", "target", target, "new", len(res.New), "duplicates", len(res.Duplicates))
	}
}
