package application

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the business counters exported on /metrics.
type Metrics struct {
	checkouts        *prometheus.CounterVec
	checkoutDuration *prometheus.HistogramVec
	couponApplies    *prometheus.CounterVec
}

// NewMetrics registers checkout and coupon metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "checkouts_total",
			Help:      "Checkout outcomes by gateway and status.",
		}, []string{"gateway", "status"}),
		checkoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "checkout",
			Name:      "checkout_duration_seconds",
			Help:      "Time spent running the checkout saga.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"gateway"}),
		couponApplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "coupon_applications_total",
			Help:      "Coupon application attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.checkouts, m.checkoutDuration, m.couponApplies)
	return m
}

func (m *Metrics) observeCheckout(gateway, status string, seconds float64) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(gateway, status).Inc()
	m.checkoutDuration.WithLabelValues(gateway).Observe(seconds)
}

func (m *Metrics) observeCoupon(result string) {
	if m == nil {
		return
	}
	m.couponApplies.WithLabelValues(result).Inc()
}
