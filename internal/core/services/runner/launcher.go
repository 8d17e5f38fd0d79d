package runner

import (
	"context"
	"log/slog"

	"github.com/lcalzada-xor/fast/internal/core/domain"
)

// DefinitionsSource supplies the current snapshot of exploit definitions,
// backed by the content-hash cache (§4.2).
type DefinitionsSource interface {
	Snapshot() ([]domain.ExploitDefinition, bool)
}

// Drainer is the Fallback Drainer (C5), invoked once per tick alongside
// the exploit dispatch.
type Drainer interface {
	DrainOnce(ctx context.Context)
}

// Launcher is the Exploit Launcher (C2, §4.2): on every tick boundary it
// snapshots the definitions set and fires one Session per definition
// asynchronously, never blocking the tick on their completion.
type Launcher struct {
	Definitions DefinitionsSource
	Drain       Drainer
	NewSession  func() *Session
	Logger      *slog.Logger
	TeamHosts   func() []string
	OwnTeamIPs  map[string]struct{}
}

// LaunchTick runs one firing of the launcher (§4.2).
func (l *Launcher) LaunchTick(ctx context.Context) {
	defs, ok := l.Definitions.Snapshot()
	if !ok {
		l.Logger.Warn("exploit launcher: no valid exploit definitions, tick is a no-op")
	} else {
		hosts := l.TeamHosts()
		for _, def := range defs {
			def := def
			go l.NewSession().Run(ctx, def, hosts, l.OwnTeamIPs)
		}
	}

	l.Drain.DrainOnce(ctx)
}

// FireNamed starts one Session per name found in the current definitions
// snapshot, bypassing each exploit's configured delay (§4.1 "fire <names>").
// It returns the number of exploits actually started.
func (l *Launcher) FireNamed(ctx context.Context, names []string) int {
	defs, ok := l.Definitions.Snapshot()
	if !ok {
		return 0
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	hosts := l.TeamHosts()
	started := 0
	for _, def := range defs {
		if _, ok := wanted[def.Name]; !ok {
			continue
		}
		def := def
		def.Delay = 0
		go l.NewSession().Run(ctx, def, hosts, l.OwnTeamIPs)
		started++
	}
	return started
}
