// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync metrics
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gorated_sync_runs_total",
			Help: "Sync invocations by scope and result (success, failure, fresh)",
		},
		[]string{"scope", "result"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gorated_sync_duration_seconds",
			Help:    "Duration of sync runs that fetched from TMDB",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)

	SyncRecordsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gorated_sync_records_inserted_total",
			Help: "Media records inserted into the local mirror",
		},
		[]string{"media_type"},
	)

	SyncDescriptorsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gorated_sync_descriptors_skipped_total",
			Help: "Remote descriptors skipped because they could not be mapped",
		},
		[]string{"media_type"},
	)

	LastSyncTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gorated_last_sync_timestamp_seconds",
			Help: "Unix time of the last successful sync",
		},
	)

	// TMDB client metrics
	RemoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gorated_tmdb_requests_total",
			Help: "TMDB API requests by result (success, failure, rejected)",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gorated_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gorated_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gorated_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
)
