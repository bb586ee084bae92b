package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for pipeline operations.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	BatchSize         prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "xai_pipeline_operations_total",
			Help: "Total pipeline operations by operation and result code",
		}, []string{"operation", "result"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xai_pipeline_operation_duration_seconds",
			Help:    "End-to-end duration of pipeline operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "xai_pipeline_batch_size",
			Help:    "Number of applications per batch evaluation",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// Observe records one finished operation. result is "ok" or an error code.
func (m *Metrics) Observe(operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) ObserveBatch(n int) {
	if m != nil {
		m.BatchSize.Observe(float64(n))
	}
}
