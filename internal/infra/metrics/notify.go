package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsSentTotal) }

var notificationsSentTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "completion_notifications_total",
		Help: "Completion notifications attempted, labeled by provider and result.",
	},
	[]string{"provider", "result"}, // result: 'sent', 'error', 'dropped'
)

func IncNotification(provider, result string) {
	notificationsSentTotal.WithLabelValues(norm(provider), norm(result)).Inc()
}
