// Package metrics holds the Prometheus instruments shared by the binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncAttempts counts coordinator reconciliation attempts by result
	// (success, unavailable, unauthenticated).
	SyncAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "selection_sync_attempts_total",
		Help: "Sign-in reconciliation attempts by result.",
	}, []string{"result"})

	// SnapshotWrites counts durable snapshot writes by result.
	SnapshotWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "selection_snapshot_writes_total",
		Help: "Durable local snapshot writes by result.",
	}, []string{"result"})

	// HTTPRequests counts selection API requests by method, route and code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "selection_http_requests_total",
		Help: "Selection API requests.",
	}, []string{"method", "route", "code"})

	// HTTPDuration observes selection API request latency per route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "selection_http_request_duration_seconds",
		Help:    "Selection API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
