package services

import "github.com/prometheus/client_golang/prometheus"

var (
	assessmentsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assessments_created_total",
		Help: "Total number of assessments accepted through intake.",
	})

	paymentEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_total",
		Help: "Payment webhook events reconciled, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(assessmentsCreatedTotal, paymentEventsTotal)
}
