// Package metrics defines and registers all custom Prometheus metrics for the
// loyalty agent. It is the single source of truth for metric names, labels,
// and help strings; everything registers with the default registry at import
// time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loyalty"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionOpsTotal counts session lifecycle operations.
// Labels:
//   - op: "bootstrap", "login", "register", "logout", "forced_logout"
//   - result: "ok", "error", "rejected", "anonymous"
var SessionOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_ops_total",
		Help:      "Total number of session lifecycle operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// PushRegistrationsTotal counts push registration attempts.
// Label:
//   - result: "unsupported", "failed", or "registered"
var PushRegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_registrations_total",
		Help:      "Total number of push registration attempts, by result.",
	},
	[]string{"result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationPollsTotal counts poller cycles against the backend.
// Labels:
//   - resource: "list" or "count"
//   - result: "ok" or "error"
var NotificationPollsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_polls_total",
		Help:      "Total number of notification poll cycles, by resource and result.",
	},
	[]string{"resource", "result"},
)

// RealtimeEventsTotal counts domain events delivered on realtime channels.
// Labels:
//   - event: the domain event name (e.g. "validation.created")
//   - channel: the channel the event arrived on
var RealtimeEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_events_total",
		Help:      "Total number of realtime domain events received, by event and channel.",
	},
	[]string{"event", "channel"},
)

// RealtimeDedupTotal counts buffer de-duplication decisions.
// Label:
//   - result: "hit" (already buffered, skipped) or "miss" (new, buffered)
var RealtimeDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_dedup_total",
		Help:      "Total number of realtime buffer de-duplication checks, by result (hit/miss).",
	},
	[]string{"result"},
)

// RealtimeBufferDepth tracks the current size of the transitional realtime buffer.
var RealtimeBufferDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_buffer_depth",
		Help:      "Current number of realtime notifications awaiting server reconciliation.",
	},
)
