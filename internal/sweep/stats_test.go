package sweep

import (
	"testing"
	"time"
)

func TestStats_Snapshot(t *testing.T) {
	t.Parallel()

	s := &Stats{}
	for range 4 {
		s.RecordDispatch()
	}
	s.RecordCompletion(2 * time.Second)
	s.RecordCompletion(4 * time.Second)
	s.RecordUnscored(6 * time.Second)
	s.RecordFailure()
	s.RecordRetry()
	s.RecordRetry()

	snap := s.Snapshot()
	if snap.Dispatched != 4 {
		t.Errorf("Dispatched = %d, want 4", snap.Dispatched)
	}
	if snap.Completed != 2 {
		t.Errorf("Completed = %d, want 2", snap.Completed)
	}
	if snap.Unscored != 1 {
		t.Errorf("Unscored = %d, want 1", snap.Unscored)
	}
	if snap.Failed != 1 {
		t.Errorf("Failed = %d, want 1", snap.Failed)
	}
	if snap.Retries != 2 {
		t.Errorf("Retries = %d, want 2", snap.Retries)
	}
	if snap.InFlight != 0 {
		t.Errorf("InFlight = %d, want 0 after all trials settle", snap.InFlight)
	}
	// Failed trials carry no latency: mean over the three finished calls.
	if snap.AvgLatency != 4*time.Second {
		t.Errorf("AvgLatency = %v, want 4s", snap.AvgLatency)
	}
}

func TestStats_EmptySnapshot(t *testing.T) {
	t.Parallel()

	snap := (&Stats{}).Snapshot()
	if snap.AvgLatency != 0 {
		t.Errorf("AvgLatency = %v, want 0 with no completed trials", snap.AvgLatency)
	}
}
