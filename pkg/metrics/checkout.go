package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout outcomes and the remote calls they make.
type CheckoutMetrics struct {
	duration       *prometheus.HistogramVec
	outcomes       *prometheus.CounterVec
	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"state"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_total",
		Help: "Checkout transactions by final state.",
	}, []string{"state"})
	remoteCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_remote_calls_total",
		Help: "Calls to the product/order API by operation and result code.",
	}, []string{"operation", "result"})
	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_remote_call_duration_seconds",
		Help:    "Latency of calls to the product/order API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(duration, outcomes, remoteCalls, remoteDuration)
	return &CheckoutMetrics{
		duration:       duration,
		outcomes:       outcomes,
		remoteCalls:    remoteCalls,
		remoteDuration: remoteDuration,
	}
}

// ObserveCheckout records a finished checkout and the state it ended in.
func (m *CheckoutMetrics) ObserveCheckout(state string, duration time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	state = normalizeLabel(state)
	m.outcomes.WithLabelValues(state).Inc()
	m.duration.WithLabelValues(state).Observe(duration.Seconds())
}

// ObserveRemoteCall records one remote call. result is "ok", "undecoded" or an error code.
func (m *CheckoutMetrics) ObserveRemoteCall(operation, result string, duration time.Duration) {
	if m == nil || m.remoteCalls == nil {
		return
	}
	operation = normalizeLabel(operation)
	m.remoteCalls.WithLabelValues(operation, normalizeLabel(result)).Inc()
	m.remoteDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
