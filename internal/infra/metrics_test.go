package infra

import (
	"testing"
)

func TestMetricsCounters(t *testing.T) {
	m := &Metrics{}

	m.RecordSnapshot(1000)
	m.RecordSnapshot(3000)
	m.RecordIntent()
	m.RecordFill()
	m.RecordSleepTransition()
	m.RecordError()

	snap := m.Snapshot()
	if snap.SnapshotsEvaluated != 2 {
		t.Errorf("expected 2 snapshots, got %d", snap.SnapshotsEvaluated)
	}
	if snap.IntentsEmitted != 1 {
		t.Errorf("expected 1 intent, got %d", snap.IntentsEmitted)
	}
	if snap.FillsApplied != 1 {
		t.Errorf("expected 1 fill, got %d", snap.FillsApplied)
	}
	if snap.SleepTransitions != 1 {
		t.Errorf("expected 1 sleep transition, got %d", snap.SleepTransitions)
	}
	if snap.ErrorsTotal != 1 {
		t.Errorf("expected 1 error, got %d", snap.ErrorsTotal)
	}
	if snap.AvgLatencyNs != 2000 {
		t.Errorf("expected avg latency 2000ns, got %d", snap.AvgLatencyNs)
	}
}

func TestMetricsConnections(t *testing.T) {
	m := &Metrics{}

	m.IncrementConnections()
	m.IncrementConnections()
	m.DecrementConnections()

	if got := m.Snapshot().ActiveConnections; got != 1 {
		t.Errorf("expected 1 active connection, got %d", got)
	}
}

func TestMetricsReset(t *testing.T) {
	m := &Metrics{}
	m.RecordSnapshot(500)
	m.RecordError()
	m.Reset()

	snap := m.Snapshot()
	if snap.SnapshotsEvaluated != 0 || snap.ErrorsTotal != 0 || snap.AvgLatencyNs != 0 {
		t.Errorf("expected zeroed metrics after reset, got %+v", snap)
	}
}
