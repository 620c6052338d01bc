package core

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics records coordinator operations as Prometheus series:
//
//	chores_operations_total{operation,outcome}
//	chores_operation_duration_seconds{operation}
//	chores_operations_in_flight{operation}
type PrometheusMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inFlight   *prometheus.GaugeVec
}

var (
	_ MetricsRecorder  = (*PrometheusMetrics)(nil)
	_ InFlightRecorder = (*PrometheusMetrics)(nil)
)

// NewPrometheusMetrics registers the coordinator collectors with reg. Collectors that
// are already registered are reused. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PrometheusMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chores_operations_total",
			Help: "Coordinator operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chores_operation_duration_seconds",
			Help:    "Coordinator operation latency including the adapter call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chores_operations_in_flight",
			Help: "Coordinator operations currently running.",
		}, []string{"operation"}),
	}
	var err error
	if m.operations, err = register(reg, m.operations); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.inFlight, err = register(reg, m.inFlight); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Observe implements MetricsRecorder.
func (m *PrometheusMetrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	outcome := "error"
	if success {
		outcome = "success"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Started implements InFlightRecorder.
func (m *PrometheusMetrics) Started(operation string) {
	m.inFlight.WithLabelValues(operation).Inc()
}

// Finished implements InFlightRecorder.
func (m *PrometheusMetrics) Finished(operation string) {
	m.inFlight.WithLabelValues(operation).Dec()
}
