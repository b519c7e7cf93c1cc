// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

// Package metrics provides Prometheus instrumentation for the dashboard
// service: remote procedure call latency and failures, result cache
// efficiency, circuit breaker state, and HTTP request metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Remote procedure call metrics
	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supabase_rpc_duration_seconds",
			Help:    "Duration of Supabase RPC calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"procedure"},
	)

	RPCErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supabase_rpc_errors_total",
			Help: "Total number of failed Supabase RPC calls",
		},
		[]string{"procedure", "reason"}, // "http", "decode", "schema", "breaker"
	)

	RPCEmptyResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supabase_rpc_empty_results_total",
			Help: "Total number of RPC calls that returned no rows",
		},
		[]string{"procedure"},
	)

	// Result cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"procedure"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"procedure"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through the circuit breaker by outcome",
		},
		[]string{"name", "outcome"}, // "success", "failure", "rejected"
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Dashboard render metrics
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_render_duration_seconds",
			Help:    "Duration of full dashboard renders in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"group_by"},
	)

	RenderWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_render_warnings_total",
			Help: "Total user-visible warnings emitted during renders",
		},
		[]string{"group_by"},
	)
)

// RecordRPC observes one RPC call's duration.
func RecordRPC(procedure string, duration time.Duration) {
	RPCDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RecordHTTPRequest observes one served HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	s := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, path, s).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, s).Inc()
}

// TrackActiveRequest adjusts the in-flight HTTP request gauge.
func TrackActiveRequest(start bool) {
	if start {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}
