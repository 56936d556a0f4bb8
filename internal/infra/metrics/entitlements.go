package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		entitlementsCreatedTotal,
		entitlementsAlreadyActiveTotal,
		entitlementsRevenueTotal,
		entitlementsActive,
		accessChecksTotal,
	)
}

var (
	entitlementsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlements_created_total",
			Help: "Entitlement records created by category and scope.",
		},
		[]string{"category", "scope"},
	)

	entitlementsAlreadyActiveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlements_already_active_total",
			Help: "Verified purchases that found an active entitlement and wrote nothing.",
		},
		[]string{"category", "scope"},
	)

	entitlementsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlements_revenue_total",
			Help: "Sum of recorded entitlement amounts, labeled by currency.",
		},
		[]string{"currency"},
	)

	entitlementsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "entitlements_active",
			Help: "Current number of active entitlements by category.",
		},
		[]string{"category"},
	)

	accessChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_checks_total",
			Help: "Access evaluations by kind (course/bundle) and result (granted/denied/error).",
		},
		[]string{"kind", "result"},
	)
)

func IncEntitlementCreated(category, scope string) {
	entitlementsCreatedTotal.WithLabelValues(norm(category), norm(scope)).Inc()
}

func IncEntitlementAlreadyActive(category, scope string) {
	entitlementsAlreadyActiveTotal.WithLabelValues(norm(category), norm(scope)).Inc()
}

func AddEntitlementRevenue(currency string, amount int64) {
	entitlementsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func SetActiveEntitlements(category string, n int) {
	entitlementsActive.WithLabelValues(norm(category)).Set(float64(n))
}

func IncAccessCheck(kind, result string) {
	accessChecksTotal.WithLabelValues(norm(kind), norm(result)).Inc()
}
