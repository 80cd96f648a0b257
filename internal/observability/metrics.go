package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for upstream fetches, caching and
// notice publication.
type Metrics struct {
	// Upstream fetch metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source={ea,metoffice,govuk}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: source

	// Memoizer metrics.
	CacheLookups *prometheus.CounterVec // labels: cache, result={hit,miss}
	CacheEntries *prometheus.GaugeVec   // labels: cache

	// Scrape metrics.
	ScrapedRows *prometheus.CounterVec // labels: kind={closure,condition}

	// Publisher metrics.
	NoticesPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	PublisherRunning prometheus.Gauge
	MetOfficeEnabled prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.CacheEntries,
		m.ScrapedRows,
		m.NoticesPublished,
		m.PublishErrors,
		m.PublisherRunning,
		m.MetOfficeEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thames",
			Name:      "upstream_requests_total",
			Help:      "Upstream API and page requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "thames",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thames",
			Name:      "cache_lookups_total",
			Help:      "Time-bucketed cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		CacheEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "thames",
			Name:      "cache_entries",
			Help:      "Entries currently held by each cache.",
		}, []string{"cache"}),
		ScrapedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thames",
			Name:      "scraped_rows_total",
			Help:      "Rows extracted from gov.uk pages by kind.",
		}, []string{"kind"}),
		NoticesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thames",
			Name:      "notices_published_total",
			Help:      "Notices written to the notices topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thames",
			Name:      "publish_errors_total",
			Help:      "Publisher cycles that failed to scrape or write.",
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "thames",
			Name:      "publisher_running",
			Help:      "1 when the notice publisher is active, 0 otherwise.",
		}),
		MetOfficeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "thames",
			Name:      "metoffice_enabled",
			Help:      "1 when Met Office forecasts are enabled, 0 otherwise.",
		}),
	}
}

// ObserveUpstream records one upstream request.
func (m *Metrics) ObserveUpstream(source string, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(source, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(source).Observe(seconds)
}
