package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_forge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_forge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_forge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Transform metrics
var (
	TransformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_forge_transforms_total",
			Help: "Total number of transformation invocations",
		},
		[]string{"operation", "status"},
	)

	TransformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_forge_transform_duration_seconds",
			Help:    "Transformation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	TransformsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_forge_transforms_active",
			Help: "Number of transformations currently running",
		},
	)

	TransformsRejectedBusy = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_forge_transforms_rejected_busy_total",
			Help: "Requests rejected because the concurrency ceiling was reached",
		},
	)
)

// Workspace metrics
var (
	WorkspacesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_forge_workspaces_created_total",
			Help: "Total number of request workspaces created",
		},
	)

	WorkspacesDestroyed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_forge_workspaces_destroyed_total",
			Help: "Total number of request workspaces destroyed",
		},
	)

	WorkspaceCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_forge_workspace_cleanup_failures_total",
			Help: "Workspace removals that failed after all retries",
		},
	)

	WorkspaceCleanupRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_forge_workspace_cleanup_retries_total",
			Help: "Retried filesystem operations during workspace cleanup",
		},
	)
)

// Streaming metrics
var (
	BytesStaged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_forge_bytes_staged_total",
			Help: "Total bytes written to workspaces from uploads",
		},
	)

	BytesStreamed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_forge_bytes_streamed_total",
			Help: "Total artifact bytes streamed to clients",
		},
	)

	StreamAborts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_forge_stream_aborts_total",
			Help: "Artifact streams ended early, by reason",
		},
		[]string{"reason"}, // "client_gone", "timeout"
	)
)

// Memory metrics
var (
	MemoryUsageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_forge_memory_usage_bytes",
			Help: "Current heap usage as seen by the memory monitor",
		},
	)

	MemoryBackpressureActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_forge_memory_backpressure_active",
			Help: "Whether memory backpressure is rejecting new work (1 = active)",
		},
	)
)
