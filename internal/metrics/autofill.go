package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache families.
const (
	FamilyNameMatch      = "name_match"
	FamilySpeciesDetails = "species_details"
)

// AutofillMetrics contains all Prometheus metrics related to species autofill.
type AutofillMetrics struct {
	LookupRequests   *prometheus.CounterVec
	LookupDuration   *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	CacheWriteErrors *prometheus.CounterVec
	Unavailable      *prometheus.CounterVec
	Resolutions      *prometheus.CounterVec
	registry         *prometheus.Registry
}

// NewAutofillMetrics creates a new instance of AutofillMetrics.
// It requires a Prometheus registry to register the metrics.
func NewAutofillMetrics(registry *prometheus.Registry) (*AutofillMetrics, error) {
	m := &AutofillMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register autofill metrics: %w", err)
	}
	return m, nil
}

func (m *AutofillMetrics) initMetrics() {
	m.LookupRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gbif_requests_total",
		Help: "Total number of GBIF API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	m.LookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gbif_request_duration_seconds",
		Help:    "Duration of GBIF API requests in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 9),
	}, []string{"endpoint"})

	m.CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autofill_cache_lookups_total",
		Help: "Total number of lookup cache reads by family and result (hit, miss, error).",
	}, []string{"family", "result"})

	m.CacheWriteErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autofill_cache_write_errors_total",
		Help: "Total number of failed lookup cache writes by family.",
	}, []string{"family"})

	m.Unavailable = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autofill_lookup_unavailable_total",
		Help: "Total number of lookups that produced no data because the remote call failed.",
	}, []string{"operation"})

	m.Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autofill_resolutions_total",
		Help: "Total number of candidate resolutions by outcome.",
	}, []string{"outcome"})
}

// ObserveLookup records one GBIF request.
func (m *AutofillMetrics) ObserveLookup(endpoint, outcome string, elapsed time.Duration) {
	m.LookupRequests.WithLabelValues(endpoint, outcome).Inc()
	m.LookupDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordCacheHit increases the hit counter for a cache family.
func (m *AutofillMetrics) RecordCacheHit(family string) {
	m.CacheLookups.WithLabelValues(family, "hit").Inc()
}

// RecordCacheMiss increases the miss counter for a cache family.
func (m *AutofillMetrics) RecordCacheMiss(family string) {
	m.CacheLookups.WithLabelValues(family, "miss").Inc()
}

// RecordCacheReadError increases the read error counter for a cache family.
func (m *AutofillMetrics) RecordCacheReadError(family string) {
	m.CacheLookups.WithLabelValues(family, "error").Inc()
}

// RecordCacheWriteError increases the write error counter for a cache family.
func (m *AutofillMetrics) RecordCacheWriteError(family string) {
	m.CacheWriteErrors.WithLabelValues(family).Inc()
}

// RecordUnavailable counts a lookup that fell back to "no data".
func (m *AutofillMetrics) RecordUnavailable(operation string) {
	m.Unavailable.WithLabelValues(operation).Inc()
}

// RecordResolution counts a ResolveSelection outcome.
func (m *AutofillMetrics) RecordResolution(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()
}

// Collect implements the prometheus.Collector interface.
func (m *AutofillMetrics) Collect(ch chan<- prometheus.Metric) {
	m.LookupRequests.Collect(ch)
	m.LookupDuration.Collect(ch)
	m.CacheLookups.Collect(ch)
	m.CacheWriteErrors.Collect(ch)
	m.Unavailable.Collect(ch)
	m.Resolutions.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *AutofillMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.LookupRequests.Describe(ch)
	m.LookupDuration.Describe(ch)
	m.CacheLookups.Describe(ch)
	m.CacheWriteErrors.Describe(ch)
	m.Unavailable.Describe(ch)
	m.Resolutions.Describe(ch)
}
