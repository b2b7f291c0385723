// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Commits counts history entries pushed by committing mutations.
	Commits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "history",
		Name:      "commits_total",
		Help:      "Committing mutations recorded in undo history.",
	})

	// Undos and Redos count successful history moves.
	Undos = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "history",
		Name:      "undo_total",
		Help:      "Successful undo operations.",
	})
	Redos = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "history",
		Name:      "redo_total",
		Help:      "Successful redo operations.",
	})

	Ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "simulator",
		Name:      "ticks_total",
		Help:      "Simulator ticks executed.",
	})

	// StatusTransitions is labelled by the status entered.
	StatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "simulator",
		Name:      "status_transitions_total",
		Help:      "Simulated device status changes by new status.",
	}, []string{"status"})

	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "twin",
		Subsystem: "session",
		Name:      "active",
		Help:      "Open editor workspaces.",
	})

	// Saves is labelled by backend and outcome (ok, error).
	Saves = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "storage",
		Name:      "saves_total",
		Help:      "Layout saves by backend and outcome.",
	}, []string{"backend", "outcome"})
)

// Collectors returns every collector owned by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{Commits, Undos, Redos, Ticks, StatusTransitions, Sessions, Saves}
}

// NewRegistry returns a registry holding the package collectors plus the Go
// runtime and process collectors.
func NewRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Register adds the package collectors and the runtime collectors to reg.
func Register(reg prometheus.Registerer) error {
	all := append(Collectors(),
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	for _, c := range all {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
