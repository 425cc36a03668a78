package metrics

import "github.com/prometheus/client_golang/prometheus"

// Platform and purchase Prometheus metrics.
var (
	PlatformCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketgate",
			Name:      "platform_calls_total",
			Help:      "Total number of platform service calls",
		},
		[]string{"op", "status"},
	)

	PlatformCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketgate",
			Name:      "platform_call_duration_seconds",
			Help:      "Platform service call duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	PromptsIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketgate",
			Name:      "prompts_issued_total",
			Help:      "Total purchase prompts issued to the platform",
		},
		[]string{"kind"},
	)

	PurchaseOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketgate",
			Name:      "purchase_outcomes_total",
			Help:      "Resolved bulk purchase item outcomes",
		},
		[]string{"kind", "status"},
	)

	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketgate",
			Name:      "batches_total",
			Help:      "Terminated bulk purchase batches",
		},
		[]string{"status"},
	)

	InfoCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketgate",
			Name:      "product_info_cache_total",
			Help:      "Product info cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var platformMetricsRegistered bool

// RegisterPlatformMetrics registers Prometheus collectors. Must be called once from main.
func RegisterPlatformMetrics() {
	if platformMetricsRegistered {
		return
	}
	prometheus.MustRegister(PlatformCallsTotal)
	prometheus.MustRegister(PlatformCallDuration)
	prometheus.MustRegister(PromptsIssuedTotal)
	prometheus.MustRegister(PurchaseOutcomesTotal)
	prometheus.MustRegister(BatchesTotal)
	prometheus.MustRegister(InfoCacheTotal)
	platformMetricsRegistered = true
}
