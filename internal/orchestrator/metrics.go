package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for orchestrator runs.
//
// Metrics:
//   - toolroute_runs_total{outcome} - Runs by terminal outcome
//   - toolroute_resolution_sets_total{outcome} - Capability sets by resolver decision
//   - toolroute_provider_loads_total{result} - Provider loads, "ok" or "error"
//   - toolroute_run_duration_seconds{outcome} - Run latency
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	ResolutionSetsTotal *prometheus.CounterVec
	ProviderLoadsTotal  *prometheus.CounterVec
	RunDuration         *prometheus.HistogramVec
}

// NewMetrics creates the orchestrator metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolroute_runs_total",
				Help: "Total number of orchestrator runs by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionSetsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolroute_resolution_sets_total",
				Help: "Total number of capability sets by resolver decision",
			},
			[]string{"outcome"}, // "dropped", "auto", "choice"
		),
		ProviderLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolroute_provider_loads_total",
				Help: "Total number of provider loads by result",
			},
			[]string{"result"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolroute_run_duration_seconds",
				Help:    "Duration of orchestrator runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) recordRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) recordSet(outcome string) {
	if m == nil {
		return
	}
	m.ResolutionSetsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordLoads(ok, failed int) {
	if m == nil {
		return
	}
	m.ProviderLoadsTotal.WithLabelValues("ok").Add(float64(ok))
	m.ProviderLoadsTotal.WithLabelValues("error").Add(float64(failed))
}
