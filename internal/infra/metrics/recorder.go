// Package metrics exports operation counters and latencies to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements app.MetricsRecorder.
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the operation metrics on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bicycle_rental",
			Name:      "operations_total",
			Help:      "Rental desk operations by outcome.",
		}, []string{"operation", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bicycle_rental",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in rental desk operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.durations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) Observe(_ context.Context, operation, outcome string, duration time.Duration) {
	r.operations.WithLabelValues(operation, outcome).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}
