package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit log.
type Metrics struct {
	AppendLatency   prometheus.Histogram
	AppendFailures  prometheus.Counter
	IndexMisses     prometheus.Counter
	IndexFailures   *prometheus.CounterVec
	PublishFailures prometheus.Counter
	ChainValid      prometheus.Gauge
	ChainRecords    prometheus.Gauge
}

// New registers audit metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AppendLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "xai_audit_append_duration_seconds",
			Help:    "Duration of audit appends, including time waiting for the append lock",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		AppendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "xai_audit_append_failures_total",
			Help: "Total audit appends that failed to persist",
		}),
		IndexMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "xai_audit_index_misses_total",
			Help: "Total lookups that fell back to a full scan",
		}),
		IndexFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "xai_audit_index_failures_total",
			Help: "Total index operations that failed, by operation",
		}, []string{"operation"}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "xai_audit_publish_failures_total",
			Help: "Total committed records that could not be replicated",
		}),
		ChainValid: factory.NewGauge(prometheus.GaugeOpts{
			Name: "xai_audit_chain_valid",
			Help: "1 if the last chain verification passed, 0 otherwise",
		}),
		ChainRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "xai_audit_chain_records",
			Help: "Number of records covered by the last chain verification",
		}),
	}
}

func (m *Metrics) ObserveAppend(d time.Duration) {
	if m != nil {
		m.AppendLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncAppendFailures() {
	if m != nil {
		m.AppendFailures.Inc()
	}
}

func (m *Metrics) IncIndexMisses() {
	if m != nil {
		m.IndexMisses.Inc()
	}
}

func (m *Metrics) IncIndexFailures(operation string) {
	if m != nil {
		m.IndexFailures.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) IncPublishFailures() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}

// SetChainStatus records the outcome of a verification run.
func (m *Metrics) SetChainStatus(valid bool, records int64) {
	if m == nil {
		return
	}
	if valid {
		m.ChainValid.Set(1)
	} else {
		m.ChainValid.Set(0)
	}
	m.ChainRecords.Set(float64(records))
}
