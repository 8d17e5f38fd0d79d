// Package fallback implements the Fallback Store's drain loop (C5, §4.5):
// once per tick, forward every locally pending flag to the server and mark
// it forwarded, stopping on the first failure so the remainder is retried
// next tick rather than hammering an unreachable server.
package fallback

import (
	"context"
	"log/slog"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/ports"
	"github.com/lcalzada-xor/fast/internal/telemetry"
)

// Drainer periodically flushes FallbackStore into the server.
type Drainer struct {
	store  ports.FallbackStore
	client ports.ServerClient
	logger *slog.Logger
}

// New builds a Drainer.
func New(store ports.FallbackStore, client ports.ServerClient, logger *slog.Logger) *Drainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drainer{store: store, client: client, logger: logger}
}

// DrainOnce attempts to forward every pending row (§4.5). On a network
// failure it stops immediately, leaving the rest pending for the next tick.
func (d *Drainer) DrainOnce(ctx context.Context) {
	pending, err := d.store.Pending(ctx)
	if err != nil {
		d.logger.Error("fallback drainer: read pending failed", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	entries := make([]domain.FallbackEntry, len(pending))
	values := make([]string, len(pending))
	for i, p := range pending {
		ts := p.Timestamp
		entries[i] = domain.FallbackEntry{
			Flag: p.Value, Exploit: p.Exploit, Target: p.Target, Timestamp: &ts,
		}
		values[i] = p.Value
	}

	if err := d.client.EnqueueFallback(ctx, entries); err != nil {
		d.logger.Warn("fallback drainer: server still unreachable, retrying next tick", "pending", len(pending), "error", err)
		telemetry.FallbackPendingGauge.Set(float64(len(pending)))
		return
	}

	if err := d.store.MarkForwarded(ctx, values); err != nil {
		d.logger.Error("fallback drainer: mark forwarded failed", "error", err)
		return
	}
	telemetry.FallbackPendingGauge.Set(0)
	d.logger.Info("fallback drainer: forwarded", "count", len(values))
}
