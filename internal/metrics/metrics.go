// Package metrics exposes Prometheus collectors for layer loading.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LayerLoadsTotal counts layer file loads by bucket and result (ok, error).
	LayerLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "olsview_layer_loads_total",
		Help: "Layer resource loads by bucket and result",
	}, []string{"bucket", "result"})
	// FeaturesSkippedTotal counts features that were logged and skipped.
	FeaturesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "olsview_features_skipped_total",
		Help: "Features that could not be turned into primitives",
	}, []string{"bucket"})
	// Primitives is the number of registered primitives per bucket.
	Primitives = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "olsview_primitives",
		Help: "Registered primitives per bucket",
	}, []string{"bucket"})
	// TogglesTotal counts visibility toggles per category.
	TogglesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "olsview_visibility_toggles_total",
		Help: "Visibility toggles by category",
	}, []string{"category"})
	// FetchDurationMs observes resource fetch latency per fetcher.
	FetchDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "olsview_fetch_duration_ms",
		Help:    "Resource fetch duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"source"})
	// CacheHitsTotal counts fetch cache hits per cache layer.
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "olsview_cache_hits_total",
		Help: "Fetch cache hits",
	}, []string{"cache"})
	// CacheMissesTotal counts fetch cache misses per cache layer.
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "olsview_cache_misses_total",
		Help: "Fetch cache misses",
	}, []string{"cache"})
)

func init() {
	prometheus.MustRegister(LayerLoadsTotal)
	prometheus.MustRegister(FeaturesSkippedTotal)
	prometheus.MustRegister(Primitives)
	prometheus.MustRegister(TogglesTotal)
	prometheus.MustRegister(FetchDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
