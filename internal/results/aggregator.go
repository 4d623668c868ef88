package results

import (
	"sort"
	"sync"
)

// cellAgg accumulates scored trials for one cell.
type cellAgg struct {
	sum float64
	n   int
}

// Aggregator reduces trial records into the depth × length matrix.
// Appends are serialised by a mutex: trials complete concurrently and the
// aggregator is the single point where their results converge.
type Aggregator struct {
	mu       sync.Mutex
	records  []Record
	cells    map[Cell]*cellAgg
	failed   int
	unscored int
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{cells: map[Cell]*cellAgg{}}
}

// Append adds one trial record. Records with an invalid score (failed or
// unscored trials) are retained and counted but contribute nothing to the
// cell mean, so a missing cell stays distinguishable from a zero score.
func (a *Aggregator) Append(rec Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = append(a.records, rec)
	switch rec.Status {
	case StatusFailed:
		a.failed++
		return
	case StatusUnscored:
		a.unscored++
		return
	}

	key := rec.Key()
	agg := a.cells[key]
	if agg == nil {
		agg = &cellAgg{}
		a.cells[key] = agg
	}
	agg.sum += rec.Score.Value
	agg.n++
}

// Records returns a copy of all appended records.
func (a *Aggregator) Records() []Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Record, len(a.records))
	copy(out, a.records)
	return out
}

// Counts returns the total, failed, and unscored record counts.
func (a *Aggregator) Counts() (total, failed, unscored int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records), a.failed, a.unscored
}

// Matrix returns a snapshot of the aggregated matrix with sorted axes.
// Cells for which no scored trial exists are absent from the map.
func (a *Aggregator) Matrix() Matrix {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := Matrix{Cells: make(map[Cell]float64, len(a.cells))}
	lengths := map[int]bool{}
	depths := map[float64]bool{}
	for cell, agg := range a.cells {
		m.Cells[cell] = agg.sum / float64(agg.n)
		lengths[cell.Length] = true
		depths[cell.Depth] = true
	}
	for l := range lengths {
		m.Lengths = append(m.Lengths, l)
	}
	for d := range depths {
		m.Depths = append(m.Depths, d)
	}
	sort.Ints(m.Lengths)
	sort.Float64s(m.Depths)
	return m
}
