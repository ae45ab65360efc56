package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module: how often
// transitions land, which fallback strategy had to carry them, and how many
// records are waiting for background reconciliation.
type Metrics struct {
	TransitionsTotal     *prometheus.CounterVec
	FallbackStrategyUsed *prometheus.CounterVec
	LocallyAhead         prometheus.Gauge
	ConversionsTotal     prometheus.Counter
	PaymentVerifyTotal   *prometheus.CounterVec
	ReconcileRunsTotal   prometheus.Counter
}

// New creates a Metrics instance with all registration module metrics registered.
func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubreg_transitions_total",
			Help: "Registration transitions by outcome (persisted, degraded, rejected)",
		}, []string{"outcome"}),
		FallbackStrategyUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubreg_fallback_strategy_total",
			Help: "Successful writes by fallback strategy",
		}, []string{"strategy"}),
		LocallyAhead: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "clubreg_locally_ahead_records",
			Help: "Records whose user-visible state is ahead of the store",
		}),
		ConversionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clubreg_member_conversions_total",
			Help: "Registrations converted into member records",
		}),
		PaymentVerifyTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clubreg_payment_verify_total",
			Help: "Payment verification calls by provider-reported status",
		}, []string{"status"}),
		ReconcileRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clubreg_reconcile_runs_total",
			Help: "Background reconciliation sweeps executed",
		}),
	}
}

// ObserveTransition records a transition outcome.
func (m *Metrics) ObserveTransition(outcome string) {
	m.TransitionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStrategy records which strategy persisted a write.
func (m *Metrics) ObserveStrategy(strategy string) {
	m.FallbackStrategyUsed.WithLabelValues(strategy).Inc()
}

// ObserveVerify records a provider verification result.
func (m *Metrics) ObserveVerify(status string) {
	m.PaymentVerifyTotal.WithLabelValues(status).Inc()
}
