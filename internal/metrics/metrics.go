package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Match engine
	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuematch_match_requests_total",
			Help: "Total number of match requests by outcome",
		},
		[]string{"kind", "outcome"}, // "matched", "relaxed", "no_result", "invalid", "unavailable"
	)

	MatchTierUsed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venuematch_match_tier_used",
			Help:    "Ordinal of the tier that produced the selection",
			Buckets: []float64{0, 1, 2, 3},
		},
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venuematch_match_duration_seconds",
			Help:    "Duration of a full match including every tier lookup",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Catalog lookups
	CatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuematch_catalog_lookups_total",
			Help: "Total number of catalog lookups by result",
		},
		[]string{"result"}, // "ok", "empty", "error", "timeout", "open"
	)

	CatalogLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venuematch_catalog_lookup_duration_seconds",
			Help:    "Duration of single catalog lookups",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "venuematch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuematch_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Decision recording
	DecisionRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuematch_decision_records_total",
			Help: "Total number of decision record attempts by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuematch_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)
