package services

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Delivery attempts by event type and outcome.",
		},
		[]string{"event", "status"},
	)

	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_messages_sent_total",
			Help: "Platform messages accepted, by event type.",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(deliveryTotal, messagesSent)
}
