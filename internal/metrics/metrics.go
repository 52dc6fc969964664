// Package metrics holds the Prometheus collectors of the storefront API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes handled requests by route pattern, method and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of handled HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// OrdersCreated counts successfully placed orders by payment method.
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders placed successfully.",
	}, []string{"payment_method"})

	// OrderFailures counts rejected order placements by error code.
	OrderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "failures_total",
		Help:      "Order placements rejected, by reason.",
	}, []string{"reason"})

	// OrderTransitions counts status changes by target status.
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "status_transitions_total",
		Help:      "Order status changes, by new status.",
	}, []string{"status"})

	// CouponChecks counts coupon evaluations by outcome.
	CouponChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "coupons",
		Name:      "checks_total",
		Help:      "Coupon evaluations, by result.",
	}, []string{"result"})

	// CouponsImported counts catalogue rows written by the importer.
	CouponsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "coupons",
		Name:      "imported_total",
		Help:      "Coupon catalogue rows imported, by action.",
	}, []string{"action"})
)

// ObserveRequest records one handled request.
func ObserveRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
