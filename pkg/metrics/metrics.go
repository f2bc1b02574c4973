// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pairchat/pkg/store"
)

var (
	// Mutations counts committed state changes by operation name.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairchat_mutations_total",
		Help: "Committed mutations by operation.",
	}, []string{"op"})

	LiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pairchat_live_subscriptions",
		Help: "Currently registered live-query subscriptions.",
	})

	LiveEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_live_events_published_total",
		Help: "Invalidation events accepted into the live queue.",
	})

	LiveEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_live_events_dropped_total",
		Help: "Invalidation events rejected because the live queue was full.",
	})

	LiveEvalSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pairchat_live_eval_seconds",
		Help:    "Live query re-evaluation latency.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pairchat_store_disk_bytes",
		Help: "Best-effort on-disk size of the store directory.",
	}, func() float64 {
		return float64(store.GetDiskMetrics().TotalBytes)
	})
}
