// Package metrics exposes Prometheus counters for a harvest. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "listing_harvester"

type Metrics struct {
	pagesFetched       *prometheus.CounterVec
	listingsScraped    *prometheus.CounterVec
	enrichmentFailures prometheus.Counter
	dbRetries          *prometheus.CounterVec
	poolRefreshes      prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Result pages fetched, by category.",
		}, []string{"category"}),
		listingsScraped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_scraped_total",
			Help:      "New listings accepted after deduplication, by category.",
		}, []string{"category"}),
		enrichmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Detail pages that could not be fetched or parsed.",
		}),
		dbRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_retries_total",
			Help:      "Database operations retried after a connectivity failure, by operation.",
		}, []string{"op"}),
		poolRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_refreshes_total",
			Help:      "Connection pool reinitializations.",
		}),
	}

	reg.MustRegister(
		m.pagesFetched,
		m.listingsScraped,
		m.enrichmentFailures,
		m.dbRetries,
		m.poolRefreshes,
	)

	return m
}

func (m *Metrics) PageFetched(category string) {
	if m == nil {
		return
	}
	m.pagesFetched.WithLabelValues(category).Inc()
}

func (m *Metrics) ListingsScraped(category string, n int) {
	if m == nil {
		return
	}
	m.listingsScraped.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) EnrichmentFailed() {
	if m == nil {
		return
	}
	m.enrichmentFailures.Inc()
}

func (m *Metrics) DBRetried(op string) {
	if m == nil {
		return
	}
	m.dbRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) PoolRefreshed() {
	if m == nil {
		return
	}
	m.poolRefreshes.Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
