// Package metrics exposes Prometheus collectors for the time bank engines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "timebank"

// EntriesCreated counts submitted time entries by entry type.
var EntriesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "entries",
	Name:      "created_total",
	Help:      "Total time entries submitted, by entry type.",
}, []string{"entry_type"})

// EntryDecisions counts approve/reject outcomes, including lost races.
var EntryDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "entries",
	Name:      "decisions_total",
	Help:      "Total approval decisions, by outcome (approved, rejected, already_handled).",
}, []string{"outcome"})

// BalanceAdjustments counts committed balance mutations by cause.
var BalanceAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "balance",
	Name:      "adjustments_total",
	Help:      "Total committed balance mutations, by cause.",
}, []string{"cause"})

// Transfers counts transfer attempts by result.
var Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "transfers",
	Name:      "total",
	Help:      "Total transfer attempts, by result (ok, insufficient_balance).",
}, []string{"result"})

// TransferredHours sums hours moved between users.
var TransferredHours = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "transfers",
	Name:      "hours_total",
	Help:      "Total hours moved between users by transfers.",
})

// NotificationQueueDepth tracks notifications waiting for delivery.
var NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "notify",
	Name:      "queue_depth",
	Help:      "Current number of notifications waiting for delivery.",
})

// NotificationsSent counts delivery attempts by result.
var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "notify",
	Name:      "sent_total",
	Help:      "Total notification delivery attempts, by result (sent, failed, dropped).",
}, []string{"result"})

// HTTPRequests counts served requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests, by method, route pattern and status code.",
}, []string{"method", "route", "status"})

// HTTPDuration observes request latency in seconds.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency in seconds, by method and route pattern.",
	Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
}, []string{"method", "route"})
