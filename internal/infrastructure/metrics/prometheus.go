// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recipebox"

var (
	// CatalogFetchesTotal tracks catalog round trips.
	// Labels:
	//   - endpoint: normal, malformed, empty
	//   - result: success, error
	CatalogFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetches_total",
			Help:      "Total number of catalog fetches",
		},
		[]string{"endpoint", "result"},
	)

	// ImageLookupsTotal tracks tier lookups in the image pipeline.
	// Labels:
	//   - tier: memory, disk, network
	//   - result: hit, miss, error (network reports hit or error only)
	ImageLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_lookups_total",
			Help:      "Total number of image cache tier lookups",
		},
		[]string{"tier", "result"},
	)

	// DiskWritesTotal tracks background disk cache writes.
	// Labels:
	//   - result: success, error, dropped
	DiskWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disk_writes_total",
			Help:      "Total number of background disk cache writes",
		},
		[]string{"result"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal tracks API requests.
	// Labels:
	//   - method: HTTP method
	//   - route: matched chi route pattern
	//   - status: response status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks API request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// WarmTasksTotal tracks cache warming tasks handled by the worker.
	// Labels:
	//   - result: warmed, skipped, dropped, retry
	WarmTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warm_tasks_total",
			Help:      "Total number of cache warming tasks",
		},
		[]string{"result"},
	)
)

// Generic result constants.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultDropped = "dropped"
)

// Image tier constants.
const (
	TierMemory  = "memory"
	TierDisk    = "disk"
	TierNetwork = "network"
)

// Warm task result constants.
const (
	WarmWarmed  = "warmed"
	WarmSkipped = "skipped"
	WarmRetry   = "retry"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
