package social

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storiesSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "huddle",
	Subsystem: "session",
	Name:      "stories_swept_total",
	Help:      "Expired stories removed by the sweeper.",
})
