package resource

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	completions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogsync",
			Subsystem: "resource",
			Name:      "completions_total",
			Help:      "Terminal envelopes published per job.",
		},
		[]string{"job", "status"},
	)
	cacheLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogsync",
			Subsystem: "resource",
			Name:      "cache_loads_total",
			Help:      "Cache reads performed before the network call.",
		},
		[]string{"job", "hit"},
	)
)

// RegisterMetrics registers the resource collectors on the default registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(completions, cacheLoads)
	})
}

func recordCompletion(job string, status Status) {
	completions.WithLabelValues(job, status.String()).Inc()
}

func recordCacheLoad(job string, hit bool) {
	label := "false"
	if hit {
		label = "true"
	}
	cacheLoads.WithLabelValues(job, label).Inc()
}
