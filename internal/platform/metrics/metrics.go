// Package metrics owns the process Prometheus registry and its HTTP handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds process-wide collectors. Domain packages register their
// own metrics against it through Registerer.
type Registry struct {
	reg *prometheus.Registry

	BuildInfo *prometheus.GaugeVec
}

// New creates a registry with Go runtime and process collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg: reg,
		BuildInfo: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "xai_build_info",
			Help: "Constant 1, labelled with the scoring model version",
		}, []string{"model_version"}),
	}
}

// Registerer is passed to domain metric constructors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// SetModelVersion records the active model version.
func (r *Registry) SetModelVersion(version string) {
	r.BuildInfo.Reset()
	r.BuildInfo.WithLabelValues(version).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
