package attendance

import "github.com/prometheus/client_golang/prometheus"

var verifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "classlogger_face_verifications_total",
		Help: "Face verification outcomes for student attendance submissions.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(verifications)
}
