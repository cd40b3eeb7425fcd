// Package metrics exposes Prometheus counters for coupon lifecycle events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for coupon_apply_total.
const (
	ResultSuccess       = "success"
	ResultNotFound      = "not_found"
	ResultInactive      = "inactive"
	ResultExpired       = "expired"
	ResultLimitExceeded = "limit_exceeded"
	ResultBelowMinimum  = "below_minimum"
	ResultConflict      = "conflict"
	ResultError         = "error"
)

var (
	couponsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupon_created_total",
		Help: "Number of coupons issued.",
	})

	couponsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupon_deleted_total",
		Help: "Number of coupons deleted.",
	})

	couponApplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_apply_total",
		Help: "Coupon apply attempts partitioned by outcome.",
	}, []string{"result"})
)

// CouponCreated records one issued coupon.
func CouponCreated() {
	couponsCreated.Inc()
}

// CouponDeleted records one deleted coupon.
func CouponDeleted() {
	couponsDeleted.Inc()
}

// ApplyObserved records one apply attempt with the given result label.
func ApplyObserved(result string) {
	couponApplies.WithLabelValues(result).Inc()
}
