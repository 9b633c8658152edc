// Package metrics holds the Prometheus collectors of the study service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the study service
type Metrics struct {
	// Backend call metrics, labelled by operation and outcome
	BackendCalls    *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec

	// Upload metrics
	FilesAccepted *prometheus.CounterVec
	FilesRejected prometheus.Counter
	UploadBytes   prometheus.Histogram

	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsEvicted prometheus.Counter

	// Export metrics
	Exports       *prometheus.CounterVec
	AudioDuration prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which tests use to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BackendCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studydocs_backend_calls_total",
			Help: "Total number of generation backend calls",
		}, []string{"operation", "outcome"}),
		BackendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studydocs_backend_call_duration_seconds",
			Help:    "Duration of generation backend calls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}, []string{"operation"}),

		FilesAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studydocs_files_accepted_total",
			Help: "Total number of accepted documents by MIME type",
		}, []string{"mime_type"}),
		FilesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "studydocs_files_rejected_total",
			Help: "Total number of rejected documents",
		}),
		UploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "studydocs_upload_size_bytes",
			Help:    "Size of accepted documents in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to ~256MB
		}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "studydocs_active_sessions",
			Help: "Current number of sessions",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "studydocs_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "studydocs_sessions_evicted_total",
			Help: "Total number of idle sessions evicted",
		}),

		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studydocs_exports_total",
			Help: "Total number of exported artifacts by format",
		}, []string{"format"}),
		AudioDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "studydocs_narration_duration_seconds",
			Help:    "Playback length of synthesized narrations",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10), // 5s to ~43 minutes
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studydocs_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studydocs_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveBackendCall records one backend call.
func (m *Metrics) ObserveBackendCall(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.BackendCalls.WithLabelValues(operation, outcome).Inc()
	m.BackendDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveUpload records the outcome of a file intake.
func (m *Metrics) ObserveUpload(mimeTypes []string, sizes []int64, rejected int) {
	if m == nil {
		return
	}
	for _, mt := range mimeTypes {
		m.FilesAccepted.WithLabelValues(mt).Inc()
	}
	for _, s := range sizes {
		m.UploadBytes.Observe(float64(s))
	}
	m.FilesRejected.Add(float64(rejected))
}

// ObserveExport records a downloaded artifact.
func (m *Metrics) ObserveExport(format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format).Inc()
}
