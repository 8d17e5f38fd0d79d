package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
)

// FlagStore is the server-side authoritative flag database (C7, §4.7).
// All operations are transactional; Insert distinguishes "new" from
// "duplicate" via a conflict-ignore unique index on Value.
type FlagStore interface {
	// Insert attempts to insert each value at the given tick. It returns the
	// partition of values into newly-inserted and already-present.
	Insert(ctx context.Context, values []string, exploit, target, player string, tick int64) (domain.EnqueueResult, error)

	// QueuedValues returns every flag currently in status=queued.
	QueuedValues(ctx context.Context) ([]domain.Flag, error)

	// UpdateStatuses transactionally marks each value accepted or rejected
	// with its external response string. All-or-nothing for the call.
	UpdateStatuses(ctx context.Context, accepted, rejected map[string]string) error

	// CountByStatus returns the overall {queued,accepted,rejected} counts.
	CountByStatus(ctx context.Context) (domain.StatusCounts, error)

	// CountByStatusForTick returns counts restricted to a single tick, used
	// for live deltas on the dashboard.
	CountByStatusForTick(ctx context.Context, tick int64) (domain.StatusCounts, error)

	// Analytics returns per (player, exploit, tick) accepted counts for
	// tick in [lo, hi], excluding the manual exploit.
	Analytics(ctx context.Context, lo, hi int64) ([]domain.AnalyticsPoint, error)

	// AllFlags returns every flag in the store, newest first. The /search
	// query predicate itself is evaluated in the search service (the DSL
	// grammar is an external/pluggable concern, §1 Non-goals).
	AllFlags(ctx context.Context) ([]domain.Flag, error)
}

// FallbackStore is the client-side durable queue of flags that failed to
// reach the server (C5, §4.5).
type FallbackStore interface {
	// Enqueue records a flag locally as pending after a failed server call.
	// Duplicate values are ignored, mirroring FlagStore's uniqueness rule.
	Enqueue(ctx context.Context, value, exploit, target string, ts time.Time) error

	// Pending returns every row still in status=pending.
	Pending(ctx context.Context) ([]domain.FallbackFlag, error)

	// MarkForwarded transitions the given values to forwarded. Never resent.
	MarkForwarded(ctx context.Context, values []string) error
}

// WebhookStore manages the webhook table (rare writes, many reads).
type WebhookStore interface {
	Create(ctx context.Context, w domain.Webhook) error
	Update(ctx context.Context, w domain.Webhook) error
	Get(ctx context.Context, id string) (domain.Webhook, error)
	List(ctx context.Context) ([]domain.Webhook, error)
}

// RecoveryStore persists and retrieves the game start instant (C9, §4.9).
type RecoveryStore interface {
	Load(ctx context.Context) (time.Time, bool, error)
	Save(ctx context.Context, started time.Time) error
}

// EventBus is the single-process publish/subscribe fan-out (C10, §4.10).
type EventBus interface {
	Publish(evt domain.Event)
	Subscribe() (ch <-chan domain.Event, unsubscribe func())
}

// Submitter invokes the external, pluggable submit(flags) function and
// parses its verdicts (§4.8 step 3, §9 "User-supplied submitter").
type Submitter interface {
	Submit(ctx context.Context, values []string) (accepted, rejected map[string]string, err error)
}

// ExploitRunner executes a shell-based exploit body against a single host,
// optionally with a flag-id hint, and returns its captured output
// (§4.3 step 6, §9 "Dynamic exploit loading", option (a)).
type ExploitRunner interface {
	Run(ctx context.Context, def domain.ExploitDefinition, host, flagID string) (output string, err error)
	RunHook(ctx context.Context, def domain.ExploitDefinition, script string) error
}

// ServerClient is the client-side HTTP gateway to the aggregation server,
// covering the ingestion and sync surface a runner needs (§6).
type ServerClient interface {
	Enqueue(ctx context.Context, flags []string, exploit, target, player string) (domain.EnqueueResult, error)
	EnqueueFallback(ctx context.Context, entries []domain.FallbackEntry) error
	Sync(ctx context.Context) (domain.SyncResponse, error)
	TriggerSubmit(ctx context.Context) error
}
