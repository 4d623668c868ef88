package haystack

import "errors"

// Sentinel errors for haystack construction and needle placement.
// All three are configuration/input errors: they surface before any
// trial is dispatched and are fatal to the run.
var (
	// ErrInsufficientCorpus indicates the document pool cannot supply the
	// requested number of tokens and corpus repetition is not enabled.
	ErrInsufficientCorpus = errors.New("corpus cannot supply requested token count")

	// ErrInvalidDepth indicates a depth percentage outside [0,100].
	ErrInvalidDepth = errors.New("depth percent outside [0,100]")

	// ErrNoNeedle indicates an empty needle sequence.
	ErrNoNeedle = errors.New("no needle provided")
)
