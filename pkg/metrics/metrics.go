// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LiveEventsTotal counts realtime transport events by type.
	LiveEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_events_total",
			Help: "Realtime transport events handled by the dispatcher",
		},
		[]string{"type"},
	)

	// LiveFragmentsTotal counts fragments fed to the aggregator by outcome.
	LiveFragmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_fragments_total",
			Help: "Fragments ingested by the live aggregator",
		},
		[]string{"role", "outcome"},
	)

	// LiveSessionsActive tracks open live sessions.
	LiveSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_sessions_active",
			Help: "Number of open live transcript sessions",
		},
	)

	// ReconciliationsTotal counts refreshes by whether finalized live messages were dropped.
	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_reconciliations_total",
			Help: "Persisted history refreshes run against live sessions",
		},
		[]string{"result"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// IngestBatchesTotal counts broker batches by status.
	IngestBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Message batches received from the broker",
		},
		[]string{"status"},
	)

	// IngestMessagesTotal counts persisted lines by role and status.
	IngestMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_messages_total",
			Help: "Conversation lines processed by the ingestion consumer",
		},
		[]string{"role", "status"},
	)

	// IngestDuration tracks batch processing time.
	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_duration_seconds",
			Help:    "Time to persist one broker batch",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordIngested records the outcome of one persisted line.
func RecordIngested(role, status string) {
	IngestMessagesTotal.WithLabelValues(role, status).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
