package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		PaymentVerifyRequests,
		PaymentVerifyDuration,
		ordersTotal,
	)
}

var (
	// Count of verify calls grouped by result and bounded reason.
	// result: ok|rejected|error
	// reason: the API error code (validation, signature_mismatch, empty_category, ...), empty on ok
	PaymentVerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_requests_total",
			Help: "Count of payment verification calls by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Latency of the verification use case grouped by result.
	PaymentVerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verify_duration_seconds",
			Help:    "Duration of payment verification in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)

	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_total",
			Help: "Gateway orders by scope and status (created/error).",
		},
		[]string{"scope", "status"},
	)
)

func ObserveVerify(result, reason string, seconds float64) {
	PaymentVerifyRequests.WithLabelValues(norm(result), norm(reason)).Inc()
	PaymentVerifyDuration.WithLabelValues(norm(result)).Observe(seconds)
}

func IncOrder(scope, status string) {
	ordersTotal.WithLabelValues(norm(scope), norm(status)).Inc()
}
