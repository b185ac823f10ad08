package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "store",
		Name:      "loads_total",
		Help:      "Store opens by name and outcome (hit, miss, corrupt, error).",
	}, []string{"name", "result"})

	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "store",
		Name:      "writes_total",
		Help:      "Store writes by name.",
	}, []string{"name"})

	writeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "store",
		Name:      "write_failures_total",
		Help:      "Writes whose persistence or broadcast failed after the snapshot was updated.",
	}, []string{"name"})

	broadcastsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "store",
		Name:      "broadcasts_applied_total",
		Help:      "Remote updates applied to a local snapshot, by name.",
	}, []string{"name"})
)
