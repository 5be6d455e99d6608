package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eigerco/computeplane/internal/chain"
)

// Metrics holds the Prometheus collectors of block execution.
type Metrics struct {
	Extrinsics    *prometheus.CounterVec
	Events        *prometheus.CounterVec
	Reaped        prometheus.Counter
	BlockDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Extrinsics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "computeplane",
				Subsystem: "runtime",
				Name:      "extrinsics_total",
				Help:      "Total number of executed extrinsics",
			},
			[]string{"call", "outcome"},
		),
		Events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "computeplane",
				Subsystem: "runtime",
				Name:      "events_total",
				Help:      "Total number of emitted events",
			},
			[]string{"event"},
		),
		Reaped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "computeplane",
				Subsystem: "runtime",
				Name:      "unresponsive_reaped_total",
				Help:      "Total number of workers taken offline for missing a heartbeat",
			},
		),
		BlockDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "computeplane",
				Subsystem: "runtime",
				Name:      "block_execution_seconds",
				Help:      "Time spent executing a block",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
	}
}

func (m *Metrics) observe(res ExtrinsicResult) {
	outcome := "success"
	if !res.OK() {
		outcome = res.Codespace
	}
	m.Extrinsics.WithLabelValues(res.Call, outcome).Inc()
	m.countEvents(res.Events)
}

func (m *Metrics) countEvents(events []chain.Event) {
	for _, e := range events {
		m.Events.WithLabelValues(e.Module() + "." + e.EventName()).Inc()
	}
}
