// Package metrics provides Prometheus metrics for the cost engine.
//
// Collectors are registered on the registry passed to New rather than the
// global default, so several engines (and tests) can coexist in a process.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records engine activity. A nil *Metrics records nothing.
type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
	ItemsTotal         *prometheus.CounterVec
	SnapshotsTotal     prometheus.Counter
	FailuresTotal      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costcore_validations_total",
				Help: "Total number of file validation runs",
			},
			[]string{"kind", "status"},
		),
		ValidationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "costcore_validation_duration_seconds",
				Help:    "Time taken to validate a file",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		ItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costcore_items_validated_total",
				Help: "Total number of item validations by outcome",
			},
			[]string{"kind", "status"},
		),
		SnapshotsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "costcore_snapshots_total",
				Help: "Total number of cost snapshots generated",
			},
		),
		FailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "costcore_failures_total",
				Help: "Total number of typed operation failures",
			},
			[]string{"operation", "code"},
		),
	}
}

// RecordValidation records one file validation run.
func (m *Metrics) RecordValidation(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(kind, status).Inc()
	m.ValidationDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordItem records one item outcome.
func (m *Metrics) RecordItem(kind, status string) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(kind, status).Inc()
}

// RecordSnapshot records a generated snapshot.
func (m *Metrics) RecordSnapshot() {
	if m == nil {
		return
	}
	m.SnapshotsTotal.Inc()
}

// RecordFailure records a typed failure returned by an operation.
func (m *Metrics) RecordFailure(operation, code string) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(operation, code).Inc()
}
