package session

import "github.com/prometheus/client_golang/prometheus"

var sessionEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "classlogger_session_events_total",
		Help: "Session lifecycle events by kind.",
	},
	[]string{"event"},
)

func init() {
	prometheus.MustRegister(sessionEvents)
}
