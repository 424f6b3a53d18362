// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mediagate"

var (
	// StorageOperationsTotal tracks calls made to the object store.
	// Labels:
	//   - operation: head, get_range, list, presign, probe
	//   - status: success, not_found, canceled, error
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of object store operations",
		},
		[]string{"operation", "status"},
	)

	// StorageOperationDuration tracks object store latency.
	// For get_range this covers opening the stream, not draining it.
	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Latency of object store operations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// StreamResponsesTotal tracks how media requests were answered.
	// Labels:
	//   - result: partial, full, range_fallback, range_rejected, aborted
	StreamResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_responses_total",
			Help:      "Total number of media stream responses by outcome",
		},
		[]string{"result"},
	)

	// StreamedBytesTotal counts body bytes written to clients.
	StreamedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streamed_bytes_total",
			Help:      "Total number of media bytes written to clients",
		},
	)

	// PresignRequestsTotal tracks presigned URL issuance.
	// Labels:
	//   - result: success, invalid, error
	PresignRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presign_requests_total",
			Help:      "Total number of presigned URL requests",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal tracks HTTP requests by chi route pattern.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	// HTTPRequestDuration tracks time to complete a request, including streaming.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"method", "route"},
	)
)

// Storage operation constants.
const (
	StorageOpHead     = "head"
	StorageOpGetRange = "get_range"
	StorageOpList     = "list"
	StorageOpPresign  = "presign"
	StorageOpProbe    = "probe"
)

// Storage status constants.
const (
	StorageStatusSuccess  = "success"
	StorageStatusNotFound = "not_found"
	StorageStatusCanceled = "canceled"
	StorageStatusError    = "error"
)

// Stream result constants.
const (
	StreamPartial       = "partial"
	StreamFull          = "full"
	StreamRangeFallback = "range_fallback"
	StreamRangeRejected = "range_rejected"
	StreamAborted       = "aborted"
)

// Presign result constants.
const (
	PresignSuccess = "success"
	PresignInvalid = "invalid"
	PresignError   = "error"
)
