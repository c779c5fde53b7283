package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsActivated,
		subscriptionsCancelled,
		subscriptionsExpired,
		remindersSent,
	)
}

var (
	subscriptionsActivated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_activated_total",
			Help: "Subscriptions activated after successful payment.",
		},
	)

	subscriptionsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_cancelled_total",
			Help: "Subscriptions cancelled (user, refund, or failed payment).",
		},
	)

	subscriptionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscriptions expired by the periodic sweep.",
		},
	)

	remindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_reminders_sent_total",
			Help: "Expiry reminder mails sent.",
		},
	)
)

func IncSubscriptionActivated()     { subscriptionsActivated.Inc() }
func IncSubscriptionCancelled()     { subscriptionsCancelled.Inc() }
func IncSubscriptionsExpired(n int) { subscriptionsExpired.Add(float64(n)) }
func IncRemindersSent(n int)        { remindersSent.Add(float64(n)) }
