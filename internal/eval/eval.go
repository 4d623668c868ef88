// Package eval scores model responses against the expected needle content.
// Two interchangeable strategies satisfy the same contract: a model-graded
// rubric prompt and a LangSmith-hosted dataset evaluation.
package eval

import (
	"context"
	"errors"

	"github.com/Aisuko/rp-needle/internal/results"
)

// Evaluator scores a raw model response. The strategy is selected once per
// run, not per trial.
type Evaluator interface {
	// Score returns the trial score for the given response. A returned
	// ErrUnparsableScore means the response was received but could not be
	// graded; the caller records a null score and the run continues.
	Score(ctx context.Context, response string) (results.Score, error)
}

// ErrUnparsableScore indicates the scoring reply could not be reduced to a
// numeric score.
var ErrUnparsableScore = errors.New("eval: unparsable score")
