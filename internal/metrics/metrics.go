// Package metrics provides Prometheus metrics for the NextBet server.
// Scrape these at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextbet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nextbet_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextbet_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)

	// Analysis Metrics
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextbet_analyses_total",
			Help: "Completed analyses by mode and recommended side",
		},
		[]string{"mode", "side"},
	)

	AnalysisFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextbet_analysis_failures_total",
			Help: "Failed analyses by reason",
		},
		[]string{"reason"}, // "malformed_image", "cancelled", "other"
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nextbet_analysis_duration_seconds",
			Help:    "Time taken to produce an analysis, including the simulated delay",
			Buckets: []float64{0.1, 0.5, 1, 2, 2.5, 5, 10},
		},
	)

	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nextbet_outcomes_total",
			Help: "Reported outcomes of analyses",
		},
		[]string{"outcome"},
	)

	// Thumbnail Metrics
	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nextbet_thumbnail_cache_hits_total",
			Help: "Thumbnail cache hit count",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nextbet_thumbnail_cache_misses_total",
			Help: "Thumbnail cache miss count",
		},
	)

	// State Metrics
	CooldownSecondsLeft = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextbet_cooldown_seconds_left",
			Help: "Seconds left before the next normal-mode analysis",
		},
	)

	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextbet_history_size",
			Help: "Number of analyses kept in history",
		},
	)

	GoalProgressPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextbet_goal_progress_percent",
			Help: "Progress towards today's goal as a percentage of the target",
		},
	)

	LiveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nextbet_live_clients",
			Help: "Connected live state subscribers",
		},
	)

	SessionsEstablished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nextbet_sessions_established_total",
			Help: "Logins, registrations and demo logins",
		},
	)
)
