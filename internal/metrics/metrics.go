// Package metrics defines the Prometheus instruments exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpace_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockpace_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommendations
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpace_recommendations_total",
			Help: "Total number of recommendations produced, by urgency",
		},
		[]string{"urgency"},
	)

	BatchSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockpace_batch_skipped_items_total",
			Help: "Total number of malformed items skipped by batch classification",
		},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockpace_evaluation_duration_seconds",
			Help:    "Duration of full pantry evaluations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Market data
	MarketLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpace_market_lookups_total",
			Help: "Total number of market pace lookups, by result",
		},
		[]string{"result"}, // "hit", "miss", "failure", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockpace_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Pantry
	PantryItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockpace_pantry_items",
			Help: "Current number of pantry items",
		},
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommendation counts one recommendation.
func RecordRecommendation(urgency string) {
	RecommendationsTotal.WithLabelValues(urgency).Inc()
}

// RecordMarketLookup counts one market lookup outcome.
func RecordMarketLookup(result string) {
	MarketLookupsTotal.WithLabelValues(result).Inc()
}
