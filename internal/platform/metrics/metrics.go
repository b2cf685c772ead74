// Package metrics exposes the Prometheus scrape endpoint for the default
// registry; individual modules register their own collectors via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the /metrics scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// PoolGauges tracks the candidate pool size per TLD, refreshed by the
// server's health loop.
type PoolGauges struct {
	Candidates *prometheus.GaugeVec
}

func NewPoolGauges() *PoolGauges {
	return &PoolGauges{
		Candidates: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "domainscout_pool_candidates",
			Help: "Number of candidates currently pooled, by TLD.",
		}, []string{"tld"}),
	}
}

// SetCandidates records the pooled candidate count for a TLD.
func (g *PoolGauges) SetCandidates(tld string, n int) {
	if g == nil {
		return
	}
	g.Candidates.WithLabelValues(tld).Set(float64(n))
}
