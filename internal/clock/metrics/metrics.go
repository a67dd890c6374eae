package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for clock-action recording.
type Metrics struct {
	ActionsRecorded *prometheus.CounterVec
	ActionsDenied   *prometheus.CounterVec
}

// New creates and registers all clock metrics.
func New() *Metrics {
	return newWith(promauto.With(prometheus.DefaultRegisterer))
}

// NewForTesting creates metrics on a private registry so test suites can
// construct coordinators without double-registration panics.
func NewForTesting() *Metrics {
	return newWith(promauto.With(prometheus.NewRegistry()))
}

func newWith(factory promauto.Factory) *Metrics {
	return &Metrics{
		ActionsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftledger_clock_actions_recorded_total",
			Help: "Clock events appended to the ledger, by action and override flag",
		}, []string{"action", "override"}),
		ActionsDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftledger_clock_actions_denied_total",
			Help: "Clock actions refused by validation, by denial reason",
		}, []string{"reason"}),
	}
}
