package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision engine.
type Metrics struct {
	// Decision outcomes by class
	DecisionOutcome *prometheus.CounterVec

	// Model prediction latency, including time waiting for a scoring slot
	ScoringLatency prometheus.Histogram

	// Model failures (errors and NaN outputs)
	ScoringFailures prometheus.Counter
}

// New registers decision metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "xai_decision_outcomes_total",
			Help: "Total decision outcomes by class",
		}, []string{"outcome"}),

		ScoringLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "xai_decision_scoring_duration_seconds",
			Help:    "Duration of model predictions",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		ScoringFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "xai_decision_scoring_failures_total",
			Help: "Total model predictions that failed or returned an invalid probability",
		}),
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveScoringLatency records one model prediction.
func (m *Metrics) ObserveScoringLatency(d time.Duration) {
	if m != nil {
		m.ScoringLatency.Observe(d.Seconds())
	}
}

// IncrementScoringFailure records a failed prediction.
func (m *Metrics) IncrementScoringFailure() {
	if m != nil {
		m.ScoringFailures.Inc()
	}
}
