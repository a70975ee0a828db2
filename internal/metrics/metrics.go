package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	EventsReceived  prometheus.Counter
	EventsProcessed *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec
	WebhookAttempts *prometheus.CounterVec
	ForwardAttempts *prometheus.CounterVec
	RouteDuration   prometheus.Histogram
	TotalConfigs    prometheus.Gauge
	EmailLogs       *prometheus.GaugeVec
}

// New creates Prometheus metrics on the given registerer. Passing a fresh
// registry keeps parallel test runs from colliding on registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "mail_routing_events_received_total",
			Help: "Total number of inbound events received",
		}),
		EventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_routing_events_processed_total",
			Help: "Total number of successfully processed events by action",
		}, []string{"action"}),
		EventsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_routing_events_failed_total",
			Help: "Total number of failed events by reason",
		}, []string{"reason"}),
		WebhookAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_routing_webhook_attempts_total",
			Help: "Total number of webhook delivery attempts by result",
		}, []string{"result"}),
		ForwardAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_routing_forward_attempts_total",
			Help: "Total number of forward delivery attempts by result",
		}, []string{"result"}),
		RouteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mail_routing_route_duration_seconds",
			Help:    "Time spent routing one inbound event",
			Buckets: prometheus.DefBuckets,
		}),
		TotalConfigs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mail_routing_configs_total",
			Help: "Number of routing configs currently persisted",
		}),
		EmailLogs: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mail_routing_email_logs",
			Help: "Number of email log entries by status",
		}, []string{"status"}),
	}
}
