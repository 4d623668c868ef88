// Package sweep generates the (context length × depth) trial grid and
// drives its concurrent execution: context assembly, provider calls with
// retry, evaluation, and result collection.
package sweep

import "errors"

// Trial identifies one grid cell: a context length, an insertion depth,
// the needle set, and a repeat index. Trials are independent units of work
// with no ordering requirement among themselves.
type Trial struct {
	Length  int
	Depth   float64
	Needles []string
	Repeat  int
}

// ErrRunAborted indicates the run was halted before all trials were
// dispatched. In-flight trials drain; the partial matrix remains valid.
var ErrRunAborted = errors.New("sweep: run aborted")
