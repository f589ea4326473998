package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// APIRequestsTotal counts finished API calls, after retries, by outcome
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikitrust_api_requests_total",
			Help: "MediaWiki API calls by endpoint and outcome (ok, failed, exhausted)",
		},
		[]string{"endpoint", "outcome"},
	)

	APIRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikitrust_api_retries_total",
			Help: "Retries scheduled after a transient API failure",
		},
		[]string{"endpoint"},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikitrust_cache_lookups_total",
			Help: "Response cache lookups by result (hit, miss)",
		},
		[]string{"kind", "result"},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikitrust_analyses_total",
			Help: "Completed page analyses by risk tier",
		},
		[]string{"risk"},
	)

	AnalysisFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikitrust_analysis_failures_total",
			Help: "Page analyses that ended in a definitive failure",
		},
		[]string{},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wikitrust_analysis_duration_seconds",
			Help:    "Wall time of a complete page analysis",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

var registerOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to
// call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			APIRequestsTotal,
			APIRetriesTotal,
			CacheLookupsTotal,
			AnalysesTotal,
			AnalysisFailuresTotal,
			AnalysisDuration,
		)
	})
}
