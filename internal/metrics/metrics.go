// Package metrics provides Prometheus metrics for the design API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rackplan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rackplan_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// External lookup metrics
	LookupCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rackplan_lookup_calls_total",
			Help: "Total number of geocoder and hazard-service attempts",
		},
		[]string{"service", "outcome"},
	)

	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rackplan_lookup_duration_seconds",
			Help:    "Duration of geocoder and hazard-service attempts",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"service"},
	)

	LookupCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rackplan_lookup_cache_total",
			Help: "Lookup cache results by outcome (hit, miss, shared, store)",
		},
		[]string{"cache", "result"},
	)

	SiteFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rackplan_site_fallbacks_total",
			Help: "Sites resolved from a market or global default instead of a live lookup",
		},
		[]string{"source"},
	)

	// Pipeline metrics
	DesignsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rackplan_designs_total",
			Help: "Design requests by outcome",
		},
		[]string{"outcome"},
	)

	AdvisoriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rackplan_advisories_total",
			Help: "Advisories attached to results by code",
		},
		[]string{"code"},
	)
)

// RecordLookup records one external lookup attempt.
func RecordLookup(service, outcome string, duration time.Duration) {
	LookupCallsTotal.WithLabelValues(service, outcome).Inc()
	LookupDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordCache records a lookup cache result.
func RecordCache(cache, result string) {
	LookupCacheTotal.WithLabelValues(cache, result).Inc()
}

// RecordFallback records a site resolved without a live lookup.
func RecordFallback(source string) {
	SiteFallbacksTotal.WithLabelValues(source).Inc()
}

// RecordDesign records the outcome of a design request.
func RecordDesign(outcome string) {
	DesignsTotal.WithLabelValues(outcome).Inc()
}

// RecordAdvisory counts an advisory by code.
func RecordAdvisory(code string) {
	AdvisoriesTotal.WithLabelValues(code).Inc()
}

// RecordHTTP records a completed HTTP request.
func RecordHTTP(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
