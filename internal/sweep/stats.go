package sweep

import (
	"sync/atomic"
	"time"
)

// Stats tracks run-level counters using atomic operations for lock-free
// concurrent updates from trial workers.
type Stats struct {
	dispatched   atomic.Int64
	completed    atomic.Int64
	failed       atomic.Int64
	unscored     atomic.Int64
	retries      atomic.Int64
	inFlight     atomic.Int64
	totalLatency atomic.Int64 // nanoseconds across completed provider calls
}

// RecordDispatch notes a trial handed to the worker pool.
func (s *Stats) RecordDispatch() {
	s.dispatched.Add(1)
	s.inFlight.Add(1)
}

// RecordCompletion notes a trial that produced a scored record.
func (s *Stats) RecordCompletion(latency time.Duration) {
	s.completed.Add(1)
	s.inFlight.Add(-1)
	s.totalLatency.Add(int64(latency))
}

// RecordFailure notes a trial that ended with a failed record.
func (s *Stats) RecordFailure() {
	s.failed.Add(1)
	s.inFlight.Add(-1)
}

// RecordUnscored notes a completed trial the evaluator could not score.
func (s *Stats) RecordUnscored(latency time.Duration) {
	s.unscored.Add(1)
	s.inFlight.Add(-1)
	s.totalLatency.Add(int64(latency))
}

// RecordRetry notes one retried provider call.
func (s *Stats) RecordRetry() {
	s.retries.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	completed := s.completed.Load()
	unscored := s.unscored.Load()
	snap := StatsSnapshot{
		Dispatched: s.dispatched.Load(),
		Completed:  completed,
		Failed:     s.failed.Load(),
		Unscored:   unscored,
		Retries:    s.retries.Load(),
		InFlight:   s.inFlight.Load(),
	}
	if done := completed + unscored; done > 0 {
		snap.AvgLatency = time.Duration(s.totalLatency.Load() / done)
	}
	return snap
}

// StatsSnapshot is a serialisable point-in-time stats view.
type StatsSnapshot struct {
	Dispatched int64         `json:"dispatched"`
	Completed  int64         `json:"completed"`
	Failed     int64         `json:"failed"`
	Unscored   int64         `json:"unscored"`
	Retries    int64         `json:"retries"`
	InFlight   int64         `json:"in_flight"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
}
