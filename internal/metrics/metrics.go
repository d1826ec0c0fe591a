package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AppMetrics holds the Prometheus metrics of the protocol engine.
type AppMetrics struct {
	RegistrationsTotal *prometheus.CounterVec
	WebhookEventsTotal *prometheus.CounterVec
}

// New initializes and registers the metrics on the given registerer. Tests
// pass a fresh registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *AppMetrics {
	factory := promauto.With(reg)
	return &AppMetrics{
		RegistrationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "app",
			Subsystem: "registration",
			Name:      "registrations_total",
			Help:      "Total number of registration attempts by outcome.",
		}, []string{"outcome"}), // outcome: authorized, confirmed, rejected, vetoed
		WebhookEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "app",
			Subsystem: "registration",
			Name:      "webhook_events_total",
			Help:      "Total number of authenticated lifecycle webhooks by event.",
		}, []string{"event"}),
	}
}
