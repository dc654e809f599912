// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation Run Metrics
	RecommendRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_runs_total",
			Help: "Total number of recommendation runs by terminal status",
		},
		[]string{"media_kind", "status"}, // status: "completed", "failed", "skipped"
	)

	RecommendRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_run_duration_seconds",
			Help:    "Duration of a single user recommendation run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"media_kind"},
	)

	RecommendStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // "profile", "retrieve", "score", "boost", "select", "persist"
	)

	RecommendCandidatesRetrieved = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_candidates_retrieved",
			Help:    "Number of candidates retrieved per run",
			Buckets: []float64{0, 10, 25, 50, 100, 150, 200, 300, 500},
		},
		[]string{"media_kind"},
	)

	RecommendItemsSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_items_selected_total",
			Help: "Total number of recommendations selected",
		},
		[]string{"media_kind"},
	)

	RecommendActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_active_runs",
			Help: "Current number of in-flight recommendation runs",
		},
	)

	RecommendProfilesBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_profiles_total",
			Help: "Taste profiles used by runs",
		},
		[]string{"source"}, // "built", "reused"
	)

	// Batch Metrics
	BatchUsersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_batch_users_total",
			Help: "Users processed by batch generation",
		},
		[]string{"result"}, // "success", "failed"
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_batch_duration_seconds",
			Help:    "Duration of batch generation across all users",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	BatchLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_batch_last_success_timestamp",
			Help: "Unix timestamp of last batch that finished without cancellation",
		},
	)

	// Embedding Metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of text embedding requests",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	EmbeddingRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Duration of text embedding requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "vector", "text_embedding"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Job Metrics
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_total",
			Help: "Background jobs by terminal status",
		},
		[]string{"status"}, // "completed", "failed", "cancelled"
	)

	// Explanation Metrics
	ExplanationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_explanations_total",
			Help: "Explanation generation attempts by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_messages_published_total",
			Help: "Messages published to the internal event bus",
		},
		[]string{"topic"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version information",
		},
		[]string{"version", "go_version"},
	)
)

// Run statuses recorded by RecordRun.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
	RunSkipped   = "skipped"
)

// RecordRun records a finished recommendation run. Skipped runs carry no
// duration or selection counts.
func RecordRun(mediaKind, status string, duration time.Duration, candidates, selected int) {
	RecommendRunsTotal.WithLabelValues(mediaKind, status).Inc()
	if status == RunSkipped {
		return
	}
	RecommendRunDuration.WithLabelValues(mediaKind).Observe(duration.Seconds())
	RecommendCandidatesRetrieved.WithLabelValues(mediaKind).Observe(float64(candidates))
	RecommendItemsSelected.WithLabelValues(mediaKind).Add(float64(selected))
}

// ObserveStage records the time spent in one pipeline stage since start.
func ObserveStage(stage string, start time.Time) {
	RecommendStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// TrackActiveRun tracks in-flight recommendation runs
func TrackActiveRun(inc bool) {
	if inc {
		RecommendActiveRuns.Inc()
	} else {
		RecommendActiveRuns.Dec()
	}
}

// RecordProfile records whether a run built a new taste profile or reused a stored one.
func RecordProfile(fresh bool) {
	if fresh {
		RecommendProfilesBuilt.WithLabelValues("built").Inc()
	} else {
		RecommendProfilesBuilt.WithLabelValues("reused").Inc()
	}
}

// RecordBatch records the outcome of a batch generation.
func RecordBatch(duration time.Duration, success, failed int, cancelled bool) {
	BatchDuration.Observe(duration.Seconds())
	BatchUsersTotal.WithLabelValues("success").Add(float64(success))
	BatchUsersTotal.WithLabelValues("failed").Add(float64(failed))
	if !cancelled {
		BatchLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordEmbeddingRequest records a text embedding call.
func RecordEmbeddingRequest(result string, duration time.Duration) {
	EmbeddingRequests.WithLabelValues(result).Inc()
	if result != "rejected" {
		EmbeddingRequestDuration.Observe(duration.Seconds())
	}
}

// RecordCacheLookup records cache hits and misses for a batch lookup.
func RecordCacheLookup(cacheType string, hits, misses int) {
	if hits > 0 {
		CacheHits.WithLabelValues(cacheType).Add(float64(hits))
	}
	if misses > 0 {
		CacheMisses.WithLabelValues(cacheType).Add(float64(misses))
	}
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordJob records a job reaching a terminal status.
func RecordJob(status string) {
	JobsTotal.WithLabelValues(status).Inc()
}

// RecordExplanation records an explanation generation attempt.
func RecordExplanation(success bool) {
	if success {
		ExplanationsGenerated.WithLabelValues("success").Inc()
	} else {
		ExplanationsGenerated.WithLabelValues("failure").Inc()
	}
}

// RecordCircuitBreakerTransition records a breaker state change. States are
// the gobreaker names ("closed", "half-open", "open").
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
