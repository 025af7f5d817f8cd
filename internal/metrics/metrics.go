// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package metrics exposes Prometheus counters and histograms for the
// library's ambient operations: outbound API requests, retries and rate
// limiting, circuit breaker transitions, local storage ingest, and the
// discovery cache. Registration happens at package init via promauto;
// callers that embed this module into a process with its own registry
// can scrape these alongside their own metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixpanel_api_requests_total",
			Help: "Total outbound Mixpanel API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"}, // outcome: success, retried, failed
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mixpanel_api_request_duration_seconds",
			Help:    "Duration of outbound Mixpanel API requests, including retries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixpanel_api_retries_total",
			Help: "Total retry attempts against the Mixpanel API by reason.",
		},
		[]string{"reason"}, // reason: rate_limited, server_error
	)

	APIRateLimitWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mixpanel_api_rate_limit_wait_seconds",
			Help:    "Time spent waiting on Retry-After or backoff before a retry.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mixpanel_circuit_breaker_state",
			Help: "Circuit breaker state for the Mixpanel API client (0=closed, 1=half-open, 2=open).",
		},
	)

	IngestRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixpanel_ingest_rows_total",
			Help: "Total rows ingested into local tables by table type.",
		},
		[]string{"type"}, // type: events, profiles
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mixpanel_ingest_duration_seconds",
			Help:    "Duration of a fetch-and-store operation.",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 180, 600},
		},
		[]string{"type"},
	)

	DiscoveryCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixpanel_discovery_cache_hits_total",
			Help: "Discovery service cache hits by method.",
		},
		[]string{"method"},
	)

	DiscoveryCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixpanel_discovery_cache_misses_total",
			Help: "Discovery service cache misses by method.",
		},
		[]string{"method"},
	)
)

// RecordAPIRequest records one completed request attempt (success or
// terminal failure, not individual retries).
func RecordAPIRequest(endpoint, outcome string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordAPIRetry records one retry attempt and the wait that preceded
// it.
func RecordAPIRetry(reason string, wait time.Duration) {
	APIRetriesTotal.WithLabelValues(reason).Inc()
	APIRateLimitWaitSeconds.Observe(wait.Seconds())
}

// SetCircuitBreakerState reports the breaker's current state.
func SetCircuitBreakerState(state int) {
	CircuitBreakerState.Set(float64(state))
}

// RecordIngest records a completed fetch-and-store call.
func RecordIngest(tableType string, rows int64, d time.Duration) {
	IngestRowsTotal.WithLabelValues(tableType).Add(float64(rows))
	IngestDuration.WithLabelValues(tableType).Observe(d.Seconds())
}

// RecordDiscoveryCache records a cache hit or miss for one discovery
// method.
func RecordDiscoveryCache(method string, hit bool) {
	if hit {
		DiscoveryCacheHits.WithLabelValues(method).Inc()
		return
	}
	DiscoveryCacheMisses.WithLabelValues(method).Inc()
}
