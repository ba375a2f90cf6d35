package scheduler

import "github.com/prometheus/client_golang/prometheus"

var scheduledRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notification_scheduled_summaries_total",
		Help: "Scheduled summary fires by outcome (success, failed, error).",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(scheduledRuns)
}
