package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability of the decision loop.
// Uses atomic operations for thread-safety: written from the sequencer
// goroutine, read from anywhere.
type Metrics struct {
	// Counters
	snapshotsEvaluated atomic.Uint64
	intentsEmitted     atomic.Uint64
	fillsApplied       atomic.Uint64
	sleepTransitions   atomic.Uint64
	errorsTotal        atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordSnapshot records one evaluated snapshot with its dispatch latency.
func (m *Metrics) RecordSnapshot(latencyNs int64) {
	m.snapshotsEvaluated.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordIntent records one emitted order intent.
func (m *Metrics) RecordIntent() {
	m.intentsEmitted.Add(1)
}

// RecordFill records one applied fill.
func (m *Metrics) RecordFill() {
	m.fillsApplied.Add(1)
}

// RecordSleepTransition records the grid entering or leaving sleep.
func (m *Metrics) RecordSleepTransition() {
	m.sleepTransitions.Add(1)
}

// RecordError records an error occurrence.
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// IncrementConnections increments active feed connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active feed connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	SnapshotsEvaluated uint64
	IntentsEmitted     uint64
	FillsApplied       uint64
	SleepTransitions   uint64
	ErrorsTotal        uint64
	AvgLatencyNs       int64
	ActiveConnections  int32
	Timestamp          time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		SnapshotsEvaluated: m.snapshotsEvaluated.Load(),
		IntentsEmitted:     m.intentsEmitted.Load(),
		FillsApplied:       m.fillsApplied.Load(),
		SleepTransitions:   m.sleepTransitions.Load(),
		ErrorsTotal:        m.errorsTotal.Load(),
		AvgLatencyNs:       avgLatency,
		ActiveConnections:  m.activeConnections.Load(),
		Timestamp:          time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.snapshotsEvaluated.Store(0)
	m.intentsEmitted.Store(0)
	m.fillsApplied.Store(0)
	m.sleepTransitions.Store(0)
	m.errorsTotal.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeConnections.Store(0)
}
