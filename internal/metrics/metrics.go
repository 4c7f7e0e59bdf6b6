// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsWrittenTotal counts packets framed and written to a sink
	PacketsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyber_packets_written_total",
			Help: "Total number of packets written to the container",
		},
		[]string{"format"},
	)

	// BytesWrittenTotal counts container bytes (headers plus payloads)
	BytesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyber_bytes_written_total",
			Help: "Total number of container bytes written, headers included",
		},
		[]string{"format"},
	)

	// WriteErrorsTotal counts failed packet writes by error type
	WriteErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyber_write_errors_total",
			Help: "Total number of failed packet writes",
		},
		[]string{"format", "error_type"},
	)

	// ValidationFailuresTotal counts containers rejected at open
	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kyber_validation_failures_total",
			Help: "Total number of containers rejected by stream validation",
		},
		[]string{"format", "reason"},
	)

	// PayloadSizeBytes tracks payload size distribution
	PayloadSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kyber_payload_size_bytes",
			Help:    "Size of packet payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(16, 4, 10), // 16B to 4MiB
		},
		[]string{"format"},
	)
)
