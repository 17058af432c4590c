// internal/app/system/metrics/metrics.go
// Package metrics exposes Prometheus counters for enrollment activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enrollment records the outcome and latency of enroll/drop operations.
// A nil *Enrollment is valid and records nothing.
type Enrollment struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewEnrollment creates the collectors and registers them with reg.
func NewEnrollment(reg prometheus.Registerer) (*Enrollment, error) {
	m := &Enrollment{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courseportal",
			Subsystem: "enrollment",
			Name:      "operations_total",
			Help:      "Enroll and drop attempts by outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "courseportal",
			Subsystem: "enrollment",
			Name:      "duration_seconds",
			Help:      "Enroll and drop latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	for _, c := range []prometheus.Collector{m.ops, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one operation. outcome is "ok" or an error class such as
// "capacity_exceeded".
func (m *Enrollment) Observe(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
