// Package metrics exposes device counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle results.
const (
	ResultPlayed     = "played"
	ResultNoPatterns = "no_patterns"
	ResultFailed     = "failed"
	ResultDropped    = "dropped"
)

// Metrics groups the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	Cycles   *prometheus.CounterVec
	Commands *prometheus.CounterVec
	Active   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "greenguile",
			Name:      "cycles_total",
			Help:      "Deterrent cycles by result.",
		}, []string{"result"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "greenguile",
			Name:      "commands_total",
			Help:      "Text commands processed by keyword.",
		}, []string{"command"}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "greenguile",
			Name:      "active",
			Help:      "1 while the deterrent is active.",
		}),
	}
	reg.MustRegister(m.Cycles, m.Commands, m.Active)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The helpers below are nil-safe so components can run without metrics.

func (m *Metrics) CycleDone(result string) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(result).Inc()
}

func (m *Metrics) CommandSeen(keyword string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(keyword).Inc()
}

func (m *Metrics) SetActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.Active.Set(1)
	} else {
		m.Active.Set(0)
	}
}
