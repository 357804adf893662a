package projection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notelog",
		Subsystem: "projection",
		Name:      "events_processed_total",
		Help:      "Events folded into a projection's read tables.",
	}, []string{"projection"})

	handlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notelog",
		Subsystem: "projection",
		Name:      "handler_errors_total",
		Help:      "Handler failures that froze a projection.",
	}, []string{"projection"})

	checkpointPosition = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "notelog",
		Subsystem: "projection",
		Name:      "checkpoint_position",
		Help:      "Last fully processed stream position per projection.",
	}, []string{"projection"})

	rebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notelog",
		Subsystem: "projection",
		Name:      "rebuilds_total",
		Help:      "Completed full rebuilds per projection.",
	}, []string{"projection"})
)
