// Package prometheus provides Prometheus-backed implementations of the
// metrics interfaces.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pressdrop/fileops/pkg/metrics"
)

// transferMetrics is the Prometheus implementation of
// metrics.TransferMetrics.
type transferMetrics struct {
	started       *prometheus.CounterVec
	completed     *prometheus.CounterVec
	failed        *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	verifyFailed  *prometheus.CounterVec
	bytesReceived *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewTransferMetrics creates a new Prometheus-backed TransferMetrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewTransferMetrics() metrics.TransferMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &transferMetrics{
		started: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileops_transfers_started_total",
				Help: "Total number of download transfers started",
			},
			[]string{"source"},
		),
		completed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileops_transfers_completed_total",
				Help: "Total number of download transfers completed successfully",
			},
			[]string{"source"},
		),
		failed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileops_transfers_failed_total",
				Help: "Total number of download transfers that failed, by reason",
			},
			[]string{"source", "reason"},
		),
		skipped: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileops_transfers_skipped_total",
				Help: "Total number of transfers skipped because the destination was current",
			},
			[]string{"source"},
		),
		verifyFailed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileops_transfer_verify_failures_total",
				Help: "Total number of post-placement verification mismatches, by kind",
			},
			[]string{"kind"},
		),
		bytesReceived: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileops_transfer_bytes_received_total",
				Help: "Total bytes received by completed transfers",
			},
			[]string{"source"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "fileops_transfer_duration_milliseconds",
				Help: "Wall-clock duration of completed transfers in milliseconds",
				Buckets: []float64{
					10,     // 10ms - local or cached
					100,    // 100ms
					500,    // 500ms - small files
					1000,   // 1s
					5000,   // 5s
					15000,  // 15s - large files
					60000,  // 1m
					300000, // 5m - very large transfers
				},
			},
			[]string{"source"},
		),
	}
}

func (m *transferMetrics) RecordStarted(source string) {
	m.started.WithLabelValues(source).Inc()
}

func (m *transferMetrics) RecordCompleted(source string, bytes int64, duration time.Duration) {
	m.completed.WithLabelValues(source).Inc()
	m.bytesReceived.WithLabelValues(source).Add(float64(bytes))
	m.duration.WithLabelValues(source).Observe(float64(duration.Milliseconds()))
}

func (m *transferMetrics) RecordFailed(source string, reason string) {
	m.failed.WithLabelValues(source, reason).Inc()
}

func (m *transferMetrics) RecordVerifyFailure(kind string) {
	m.verifyFailed.WithLabelValues(kind).Inc()
}

func (m *transferMetrics) RecordSkipped(source string) {
	m.skipped.WithLabelValues(source).Inc()
}
