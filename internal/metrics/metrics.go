// Package metrics exports retry activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// Recorder implements pgretry.Observer.
type Recorder struct {
	// Retries counts attempts that failed with a retryable error and were retried
	Retries prometheus.Counter

	// Invocations counts finished middleware invocations by outcome
	Invocations *prometheus.CounterVec

	// Attempts tracks how many attempts each invocation needed
	Attempts prometheus.Histogram
}

// NewRecorder registers the retry metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "pgretry_retries_total",
			Help: "Total number of attempts retried after a retryable error",
		}),
		Invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pgretry_invocations_total",
				Help: "Total number of middleware invocations by outcome",
			},
			[]string{"outcome"},
		),
		Attempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pgretry_attempts",
			Help:    "Attempts made per middleware invocation",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		}),
	}
}

// ObserveRetry implements pgretry.Observer.
func (r *Recorder) ObserveRetry(int, error) {
	r.Retries.Inc()
}

// ObserveOutcome implements pgretry.Observer.
func (r *Recorder) ObserveOutcome(outcome pgretry.Outcome, attempts int) {
	r.Invocations.WithLabelValues(outcome.String()).Inc()
	r.Attempts.Observe(float64(attempts))
}

var _ pgretry.Observer = (*Recorder)(nil)
