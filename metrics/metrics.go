// Package metrics registers every prometheus series the engine exports,
// adapted from the teacher's metrics package: a dedicated registry, promauto
// constructors, namespace/subsystem grouping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the flywheel engine's dedicated prometheus registry.
var Registry = prometheus.NewRegistry()

var (
	// ============================================
	// Flywheel scheduler
	// ============================================

	TradesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flywheel",
			Subsystem: "trader",
			Name:      "trades_total",
			Help:      "Total trades attempted, by side and outcome",
		},
		[]string{"side", "outcome"},
	)

	TradeFailuresTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flywheel",
			Subsystem: "trader",
			Name:      "trade_failures_total",
			Help:      "Total classified trade failures by kind",
		},
		[]string{"kind"},
	)

	ConsecutiveFailures = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "flywheel",
			Subsystem: "trader",
			Name:      "consecutive_failures",
			Help:      "Current consecutive failure count per token",
		},
		[]string{"token_id"},
	)

	TokenPaused = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "flywheel",
			Subsystem: "trader",
			Name:      "paused",
			Help:      "1 if the token is currently paused, else 0",
		},
		[]string{"token_id"},
	)

	// ============================================
	// Claim scheduler
	// ============================================

	ClaimsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flywheel",
			Subsystem: "claim",
			Name:      "claims_total",
			Help:      "Total claims attempted, by outcome",
		},
		[]string{"outcome"},
	)

	ClaimedSolTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flywheel",
			Subsystem: "claim",
			Name:      "claimed_sol_total",
			Help:      "Total SOL claimed",
		},
		[]string{"token_id"},
	)

	// ============================================
	// External call latency
	// ============================================

	ExternalCallDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flywheel",
			Subsystem: "external",
			Name:      "call_duration_seconds",
			Help:      "Latency of external calls (venue, signer, oracle)",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"collaborator", "operation"},
	)

	// ============================================
	// Scheduler tick bookkeeping
	// ============================================

	LeaseBusyTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flywheel",
			Subsystem: "scheduler",
			Name:      "lease_busy_total",
			Help:      "Ticks skipped because a token's lease was busy",
		},
		[]string{"scheduler"},
	)

	RateCapDeferredTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flywheel",
			Subsystem: "scheduler",
			Name:      "rate_cap_deferred_total",
			Help:      "Token attempts deferred because of the global trades-per-minute cap",
		},
		[]string{},
	)

	TwapQueueDepth = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "flywheel",
			Subsystem: "scheduler",
			Name:      "twap_queue_depth",
			Help:      "Number of pending TWAP queue items per token",
		},
		[]string{"token_id"},
	)

	// ============================================
	// Reactive subscriber
	// ============================================

	ReactiveEventsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flywheel",
			Subsystem: "reactive",
			Name:      "events_total",
			Help:      "Observed on-chain swap events, by outcome (dispatched/ignored/cooldown/self_trade)",
		},
		[]string{"outcome"},
	)

	ReactiveReconnectsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flywheel",
			Subsystem: "reactive",
			Name:      "reconnects_total",
			Help:      "WebSocket reconnect attempts by the reactive subscriber",
		},
		[]string{},
	)
)
