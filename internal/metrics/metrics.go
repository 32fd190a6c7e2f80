// Package metrics holds the Prometheus collectors of a correlation run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Link outcomes.
const (
	OutcomeResolved = "resolved"
	OutcomeFailed   = "failed"
)

// Metrics are registered on a private registry so that runs (and tests) do
// not share state through the global one.
type Metrics struct {
	Registry *prometheus.Registry

	Ops        prometheus.Counter
	Links      *prometheus.CounterVec
	Attempts   *prometheus.CounterVec
	Events     prometheus.Counter
	GraphEdges prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Ops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opzoom",
			Name:      "logical_ops_total",
			Help:      "Logical operations correlated.",
		}),
		Links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opzoom",
			Name:      "links_total",
			Help:      "Underlying operation links processed, by outcome.",
		}, []string{"outcome"}),
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opzoom",
			Name:      "extractor_attempts_total",
			Help:      "Layer extractor attempts, by layer and outcome.",
		}, []string{"layer", "outcome"}),
		Events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opzoom",
			Name:      "timeline_events_total",
			Help:      "Timeline events added to the table.",
		}),
		GraphEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opzoom",
			Name:      "graph_edges_total",
			Help:      "Edges in rendered attribute graphs.",
		}),
	}

	m.Registry.MustRegister(m.Ops, m.Links, m.Attempts, m.Events, m.GraphEdges)
	return m
}

// WriteFile writes the current values in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
