// Package metrics bundles the Prometheus collectors for the scrape pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all collectors on a dedicated registry. Methods are nil-safe
// so components can run unmetered in tests.
type Metrics struct {
	Registry         *prometheus.Registry
	FetchesTotal     *prometheus.CounterVec
	FetchErrorsTotal *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	RecordsTotal     *prometheus.CounterVec
	DeliveriesTotal  *prometheus.CounterVec
	PlatformFailures *prometheus.CounterVec
}

// New constructs and registers all metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fetches_total",
			Help: "Fetch attempts issued, by mode.",
		},
		[]string{"mode"},
	)
	fetchErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fetch_errors_total",
			Help: "Fetch attempts that failed, by error kind.",
		},
		[]string{"kind"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "Latency of fetch attempts.",
			Buckets: prometheus.DefBuckets,
		},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_records_total",
			Help: "Canonical records produced, by platform.",
		},
		[]string{"platform"},
	)
	deliveries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_deliveries_total",
			Help: "Record deliveries to the sink, by outcome.",
		},
		[]string{"outcome"},
	)
	platformFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_platform_failures_total",
			Help: "Whole-platform scrape failures.",
		},
		[]string{"platform"},
	)

	registry.MustRegister(fetches, fetchErrors, fetchDuration, records, deliveries, platformFailures)

	return &Metrics{
		Registry:         registry,
		FetchesTotal:     fetches,
		FetchErrorsTotal: fetchErrors,
		FetchDuration:    fetchDuration,
		RecordsTotal:     records,
		DeliveriesTotal:  deliveries,
		PlatformFailures: platformFailures,
	}
}

func (m *Metrics) IncFetch(mode string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncFetchError(kind string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveFetchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) IncRecords(platform string, n int) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(platform).Add(float64(n))
}

func (m *Metrics) IncDelivery(outcome string) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncPlatformFailure(platform string) {
	if m == nil {
		return
	}
	m.PlatformFailures.WithLabelValues(platform).Inc()
}
