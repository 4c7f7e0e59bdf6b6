// Package pipeline implements pipeline metrics.
package pipeline

import (
	"sync/atomic"
)

// Metrics contains per-run counters. They are atomic so a progress
// reporter can read them while the pipeline runs.
type Metrics struct {
	Format string

	Read        atomic.Uint64
	Written     atomic.Uint64
	Bytes       atomic.Uint64
	WriteErrors atomic.Uint64
	Skipped     atomic.Uint64
}

// NewMetrics creates a new metrics instance.
func NewMetrics(format string) *Metrics {
	return &Metrics{Format: format}
}

// Stats is a point-in-time copy of Metrics.
type Stats struct {
	Read        uint64
	Written     uint64
	Bytes       uint64
	WriteErrors uint64
	Skipped     uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		Read:        m.Read.Load(),
		Written:     m.Written.Load(),
		Bytes:       m.Bytes.Load(),
		WriteErrors: m.WriteErrors.Load(),
		Skipped:     m.Skipped.Load(),
	}
}
