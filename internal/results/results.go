// Package results accumulates per-trial outcomes into the depth × length
// performance matrix and renders them for persistence.
package results

import "time"

// Score is a nullable trial score. A failed parse or an unevaluated trial
// yields an invalid Score, which is distinct from a zero score: an invalid
// score is excluded from cell means, a zero drags them down.
type Score struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// ScoreOf returns a valid Score with the given value.
func ScoreOf(v float64) Score {
	return Score{Value: v, Valid: true}
}

// NullScore returns an invalid (null) Score.
func NullScore() Score {
	return Score{}
}

// Cell identifies one grid position in the result matrix.
type Cell struct {
	Length int     `json:"context_length"`
	Depth  float64 `json:"depth_percent"`
}

// Status classifies the outcome of a trial.
type Status string

// Status constants for trial records.
const (
	StatusOK       Status = "ok"       // completed and scored
	StatusUnscored Status = "unscored" // completed, evaluator could not score
	StatusFailed   Status = "failed"   // provider call failed permanently
)

// Record is the immutable outcome of one trial. Exactly one Record exists
// per dispatched trial, whatever its fate.
type Record struct {
	Model     string        `json:"model"`
	Length    int           `json:"context_length"`
	Depth     float64       `json:"depth_percent"`
	Repeat    int           `json:"repeat"`
	Needles   []string      `json:"needles"`
	Question  string        `json:"question"`
	Response  string        `json:"response,omitempty"`
	Context   string        `json:"-"` // rendered haystack; persisted separately, contexts get very long
	Score     Score         `json:"score"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration_ns"`
	StartedAt time.Time     `json:"started_at"`
}

// Key returns the matrix cell this record belongs to.
func (r Record) Key() Cell {
	return Cell{Length: r.Length, Depth: r.Depth}
}
