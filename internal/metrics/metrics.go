package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resultpay",
			Name:      "webhook_events_total",
			Help:      "Provider webhook deliveries by processing outcome",
		},
		[]string{"outcome"},
	)

	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resultpay",
			Name:      "verifications_total",
			Help:      "Verification requests by answering source and validity",
		},
		[]string{"source", "valid"},
	)

	ReconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resultpay",
			Name:      "reconciliations_total",
			Help:      "Charge reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	CompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resultpay",
			Name:      "completions_total",
			Help:      "Completion handler invocations",
		},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resultpay",
			Name:      "provider_requests_total",
			Help:      "Outbound provider calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		WebhookEventsTotal,
		VerificationsTotal,
		ReconciliationsTotal,
		CompletionsTotal,
		ProviderRequestsTotal,
	)
}

// Helpers keep call sites short.

func IncWebhook(outcome string) {
	WebhookEventsTotal.WithLabelValues(outcome).Inc()
}

func IncVerification(source string, valid bool) {
	v := "false"
	if valid {
		v = "true"
	}
	VerificationsTotal.WithLabelValues(source, v).Inc()
}

func IncReconciliation(outcome string) {
	ReconciliationsTotal.WithLabelValues(outcome).Inc()
}

func IncProviderRequest(operation, outcome string) {
	ProviderRequestsTotal.WithLabelValues(operation, outcome).Inc()
}
