package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		codeValidationsTotal,
		activationsTotal,
		redemptionDuration,
	)
}

var (
	codeValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_validations_total",
			Help: "Code validation verdicts by outcome.",
		},
		[]string{"verdict"}, // 'ok', 'empty', 'not_found', 'inactive', 'already_used', 'not_yet_valid', 'expired'
	)

	activationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activations_total",
			Help: "Redemption attempts by final status.",
		},
		[]string{"status"}, // 'success', 'rejected', 'error'
	)

	redemptionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "redemption_duration_seconds",
			Help:    "Duration of the redemption commit in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
	)
)

func IncCodeValidation(verdict string) {
	codeValidationsTotal.WithLabelValues(verdict).Inc()
}

func IncActivation(status string) {
	activationsTotal.WithLabelValues(status).Inc()
}

func ObserveRedemptionDuration(seconds float64) {
	redemptionDuration.Observe(seconds)
}
