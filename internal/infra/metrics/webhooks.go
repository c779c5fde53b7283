package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		webhookSignatureFailures,
		webhookRetriesTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound webhook events by type and outcome (processed/failed/ignored/duplicate).",
		},
		[]string{"type", "outcome"},
	)

	webhookSignatureFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_signature_failures_total",
			Help: "Webhook deliveries rejected for an invalid signature.",
		},
	)

	webhookRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_retries_total",
			Help: "Failed-event retry attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func IncWebhookSignatureFailure() { webhookSignatureFailures.Inc() }

func IncWebhookRetry(outcome string) {
	webhookRetriesTotal.WithLabelValues(norm(outcome)).Inc()
}
