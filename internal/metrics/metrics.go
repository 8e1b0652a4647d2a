// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the messaging/media core:
// - TTL cache efficiency (message and media caches)
// - Per-user rate limiter decisions
// - Chunked upload session lifecycle
// - Media pipeline throughput
// - API endpoint latency
// - WebSocket connections

var (
	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"}, // "messages", "media"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses (absent or expired)",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (capacity or TTL expiry)",
		},
		[]string{"cache"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache"},
	)

	// Rate Limiter Metrics
	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Total number of rate limiter decisions",
		},
		[]string{"decision"}, // "allowed", "rejected"
	)

	RateLimitTrackedUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limit_tracked_users",
			Help: "Current number of users with an active rate window",
		},
	)

	// Upload Session Metrics
	UploadSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "upload_sessions_active",
			Help: "Current number of in-flight upload sessions",
		},
	)

	UploadSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_sessions_total",
			Help: "Total number of upload sessions by terminal outcome",
		},
		[]string{"outcome"}, // "completed", "cancelled", "expired"
	)

	UploadChunksReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_chunks_received_total",
			Help: "Total number of accepted upload chunks",
		},
	)

	UploadBytesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_bytes_received_total",
			Help: "Total number of accepted upload bytes",
		},
	)

	// Media Pipeline Metrics
	MediaIngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_duration_seconds",
			Help:    "Duration of media pipeline ingest operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"media_type"}, // "image", "video", "other"
	)

	MediaIngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_errors_total",
			Help: "Total number of media pipeline ingest failures",
		},
		[]string{"reason"}, // "unsupported_type", "decode", "encode", "store"
	)

	// Typing Indicator Metrics
	TypingStatesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "typing_states_active",
			Help: "Current number of live typing indicators",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	// Sweep Metrics
	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of periodic expiry sweeps",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target"}, // "uploads", "messages_cache", "media_cache", "ratelimit", "typing"
	)

	SweepRemovals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_removals_total",
			Help: "Total number of entries removed by periodic sweeps",
		},
		[]string{"target"},
	)
)

// RecordCacheHit increments the hit counter for the named cache.
func RecordCacheHit(cache string) {
	CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss increments the miss counter for the named cache.
func RecordCacheMiss(cache string) {
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordCacheEviction increments the eviction counter for the named cache.
func RecordCacheEviction(cache string, n int) {
	if n > 0 {
		CacheEvictions.WithLabelValues(cache).Add(float64(n))
	}
}

// RecordRateLimitDecision records an allow/reject decision.
func RecordRateLimitDecision(allowed bool) {
	if allowed {
		RateLimitDecisions.WithLabelValues("allowed").Inc()
	} else {
		RateLimitDecisions.WithLabelValues("rejected").Inc()
	}
}

// RecordUploadOutcome records a terminal upload session outcome and
// decrements the active session gauge.
func RecordUploadOutcome(outcome string) {
	UploadSessionsTotal.WithLabelValues(outcome).Inc()
	UploadSessionsActive.Dec()
}

// RecordMediaIngest records a media pipeline ingest operation.
func RecordMediaIngest(mediaType string, duration time.Duration) {
	MediaIngestDuration.WithLabelValues(mediaType).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request with its latency.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSweep records a sweep pass over the named target.
func RecordSweep(target string, duration time.Duration, removed int) {
	SweepDuration.WithLabelValues(target).Observe(duration.Seconds())
	if removed > 0 {
		SweepRemovals.WithLabelValues(target).Add(float64(removed))
	}
}
