package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowgate"

// Transition outcomes recorded on TransitionsTotal.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups the collectors the service updates.
type Metrics struct {
	registry *prometheus.Registry

	BlueprintsCreated  prometheus.Counter
	BlueprintsRejected *prometheus.CounterVec
	ProcessesStarted   *prometheus.CounterVec
	TransitionsTotal   *prometheus.CounterVec
	TransitionDuration prometheus.Histogram
}

// New registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BlueprintsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blueprints_created_total",
			Help:      "Blueprints accepted and stored.",
		}),
		BlueprintsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blueprints_rejected_total",
			Help:      "Blueprints rejected by validation, by reason code.",
		}, []string{"reason"}),
		ProcessesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processes_started_total",
			Help:      "Processes instantiated, by blueprint.",
		}, []string{"blueprint"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Action executions, by blueprint, action, outcome and reason code.",
		}, []string{"blueprint", "action", "outcome", "reason"}),
		TransitionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time spent executing an action, store round trip included.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.BlueprintsCreated,
		m.BlueprintsRejected,
		m.ProcessesStarted,
		m.TransitionsTotal,
		m.TransitionDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
