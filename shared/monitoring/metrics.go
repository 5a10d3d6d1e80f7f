package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes pipeline counters over Prometheus. A nil *Metrics is valid
// and records nothing, so tests can pass nil.
type Metrics struct {
	registry    *prometheus.Registry
	runsTotal   *prometheus.CounterVec
	moduleTotal *prometheus.CounterVec
	runSeconds  prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "filmroom_pipeline_runs_total",
			Help: "Pipeline runs by terminal status.",
		}, []string{"status"}),
		moduleTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "filmroom_module_results_total",
			Help: "Formatting module results by module and status.",
		}, []string{"module", "status"}),
		runSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "filmroom_run_duration_seconds",
			Help:    "Wall-clock duration of full pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		}),
	}
}

func (m *Metrics) RecordRun(status string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordModule(module, status string) {
	if m == nil {
		return
	}
	m.moduleTotal.WithLabelValues(module, status).Inc()
}

func (m *Metrics) ObserveRunSeconds(seconds float64) {
	if m == nil {
		return
	}
	m.runSeconds.Observe(seconds)
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
