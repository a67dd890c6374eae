package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the projection synchronizer.
type Metrics struct {
	SubscriptionsActive prometheus.Gauge
	PushesApplied       *prometheus.CounterVec
	FeedErrors          *prometheus.CounterVec
}

// New creates and registers all synchronizer metrics.
func New() *Metrics {
	return newWith(promauto.With(prometheus.DefaultRegisterer))
}

// NewForTesting creates metrics on a private registry so test suites can
// construct synchronizers without double-registration panics.
func NewForTesting() *Metrics {
	return newWith(promauto.With(prometheus.NewRegistry()))
}

func newWith(factory promauto.Factory) *Metrics {
	return &Metrics{
		SubscriptionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shiftledger_sync_subscriptions_active",
			Help: "Feed subscriptions currently held, including nested confirmation sub-feeds",
		}),
		PushesApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftledger_sync_pushes_applied_total",
			Help: "Feed snapshots merged into the projection, by collection",
		}, []string{"collection"}),
		FeedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shiftledger_sync_feed_errors_total",
			Help: "Feed failures, split into permission and generic classes",
		}, []string{"kind"}),
	}
}
