// Geocookbook - Geospatial Analysis Cookbook
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocookbook

// Package metrics holds the Prometheus collectors of the service. They are
// registered on the default registry and exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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
		[]string{"operation", "table", "error_type"},
	)

	DBSpatialOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_spatial_operations_total",
			Help: "Total number of spatial operations (ST_* functions)",
		},
		[]string{"operation_type"}, // "within", "buffer", "centroid", "zonal"
	)

	DBExtensionAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "duckdb_extension_available",
			Help: "Whether a DuckDB extension is loaded (1) or not (0)",
		},
		[]string{"extension"},
	)

	DatasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Number of rows loaded per dataset table",
		},
		[]string{"table"},
	)

	// Zonal Statistics Metrics
	ZonalComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonal_computations_total",
			Help: "Total number of zonal aggregations by outcome",
		},
		[]string{"status"}, // "success", "empty", "malformed", "raster_unavailable", "error"
	)

	ZonalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zonal_computation_duration_seconds",
			Help:    "Duration of a zonal aggregation including raster open",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ZonalGeometries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zonal_geometries_per_call",
			Help:    "Number of geometries aggregated per zonal call",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	RasterCellsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raster_cells_read_total",
			Help: "Total number of raster cells read for zonal aggregation",
		},
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

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Response Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of response cache lookups",
		},
		[]string{"cache", "result"}, // result: hit, miss
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of entries in a response cache",
		},
		[]string{"cache"},
	)

	// Raster Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordSpatialOperation counts one spatial query of the given kind.
func RecordSpatialOperation(kind string) {
	DBSpatialOperations.WithLabelValues(kind).Inc()
}

// SetExtensionAvailable publishes the load state of a DuckDB extension.
func SetExtensionAvailable(name string, available bool) {
	v := 0.0
	if available {
		v = 1
	}
	DBExtensionAvailable.WithLabelValues(name).Set(v)
}

// SetDatasetRows publishes the row count of a loaded dataset table.
func SetDatasetRows(table string, rows int64) {
	DatasetRows.WithLabelValues(table).Set(float64(rows))
}

// RecordZonal records one zonal aggregation.
func RecordZonal(status string, geometries int, cells int, duration time.Duration) {
	ZonalComputations.WithLabelValues(status).Inc()
	ZonalDuration.Observe(duration.Seconds())
	if geometries > 0 {
		ZonalGeometries.Observe(float64(geometries))
	}
	if cells > 0 {
		RasterCellsRead.Add(float64(cells))
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRateLimitHit counts a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordCacheLookup counts a cache hit or miss and publishes the size.
func RecordCacheLookup(cache string, hit bool, entries int) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
	CacheEntries.WithLabelValues(cache).Set(float64(entries))
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
