package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TicksTotal counts tick boundaries fired by the Clock (C1).
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fast",
			Name:      "ticks_total",
			Help:      "Total number of tick boundaries fired.",
		},
	)

	// FlagsEnqueuedTotal counts flags submitted to enqueue endpoints, by outcome.
	FlagsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fast",
			Name:      "flags_enqueued_total",
			Help:      "Total number of flags submitted to enqueue endpoints, by outcome.",
		},
		[]string{"outcome"}, // new | duplicate | own
	)

	// SubmissionsTotal counts submission scheduler firings by outcome.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fast",
			Name:      "submissions_total",
			Help:      "Total number of submission ticks, by outcome.",
		},
		[]string{"outcome"}, // completed | skipped | failed
	)

	// FlagsSubmittedTotal counts flags resolved by a submission, by verdict.
	FlagsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fast",
			Name:      "flags_submitted_total",
			Help:      "Total number of flags resolved by the submit function, by verdict.",
		},
		[]string{"verdict"}, // accepted | rejected | missing
	)

	// ExploitSessionsTotal counts exploit sessions launched, by exploit name.
	ExploitSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fast",
			Name:      "exploit_sessions_total",
			Help:      "Total number of exploit sessions launched.",
		},
		[]string{"exploit"},
	)

	// ExploitTimeoutsTotal counts per-attack timeouts.
	ExploitTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fast",
			Name:      "exploit_timeouts_total",
			Help:      "Total number of per-attack timeouts.",
		},
		[]string{"exploit"},
	)

	// FallbackPendingGauge reports the current size of the client fallback queue.
	FallbackPendingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fast",
			Name:      "fallback_pending",
			Help:      "Current number of pending rows in the client fallback store.",
		},
	)

	// Ensure metrics are only registered once.
	once sync.Once
)

// InitMetrics registers every metric with the default Prometheus registry.
// Idempotent, guarded by sync.Once.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(TicksTotal)
		prometheus.DefaultRegisterer.Register(FlagsEnqueuedTotal)
		prometheus.DefaultRegisterer.Register(SubmissionsTotal)
		prometheus.DefaultRegisterer.Register(FlagsSubmittedTotal)
		prometheus.DefaultRegisterer.Register(ExploitSessionsTotal)
		prometheus.DefaultRegisterer.Register(ExploitTimeoutsTotal)
		prometheus.DefaultRegisterer.Register(FallbackPendingGauge)
	})
}
