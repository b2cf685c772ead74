package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks resolver and freshness-cache behavior. All methods are
// nil-receiver safe so tests can pass a nil *Metrics.
type Metrics struct {
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	ResolutionsTotal  *prometheus.CounterVec
	FallthroughsTotal prometheus.Counter
	DenialsTotal      prometheus.Counter
	ResolveDuration   prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domainscout_availability_cache_hits_total",
			Help: "Total freshness cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domainscout_availability_cache_misses_total",
			Help: "Total freshness cache misses",
		}),
		ResolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domainscout_availability_resolutions_total",
			Help: "Total resolutions by answering source",
		}, []string{"source"}),
		FallthroughsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domainscout_availability_fallthroughs_total",
			Help: "Total times a source failed and the resolver fell through",
		}),
		DenialsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domainscout_availability_conservative_denials_total",
			Help: "Total conservative denials returned after all sources failed",
		}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "domainscout_availability_resolve_duration_seconds",
			Help:    "Latency of single-domain resolutions",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) RecordResolution(source string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordFallthrough() {
	if m == nil {
		return
	}
	m.FallthroughsTotal.Inc()
}

func (m *Metrics) RecordDenial() {
	if m == nil {
		return
	}
	m.DenialsTotal.Inc()
}

func (m *Metrics) ObserveResolveDuration(seconds float64) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(seconds)
}
