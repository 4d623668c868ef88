package sweep

import (
	"fmt"
	"math"

	"github.com/Aisuko/rp-needle/internal/haystack"
)

// Depth distribution names for interval expansion.
const (
	DistributionLinear  = "linear"
	DistributionSigmoid = "sigmoid"
)

// LengthSpec enumerates context lengths: either an explicit value list or
// a min/max/intervals span expanded into evenly spaced values.
type LengthSpec struct {
	Values    []int
	Min       int
	Max       int
	Intervals int
}

// DepthSpec enumerates depth percents. Distribution applies to span
// expansion only: linear spacing, or a logistic curve that concentrates
// depths around the middle of the document.
type DepthSpec struct {
	Values       []float64
	Min          float64
	Max          float64
	Intervals    int
	Distribution string
}

// Expand returns the context length axis. Explicit values win over the span.
func (s LengthSpec) Expand() ([]int, error) {
	if len(s.Values) > 0 {
		return s.Values, nil
	}
	if s.Min <= 0 || s.Max < s.Min || s.Intervals <= 0 {
		return nil, fmt.Errorf("sweep: invalid length span min=%d max=%d intervals=%d", s.Min, s.Max, s.Intervals)
	}
	points := linspace(float64(s.Min), float64(s.Max), s.Intervals)
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = int(math.Round(p))
	}
	return out, nil
}

// Expand returns the depth axis. Explicit values win over the span.
// Every resulting depth must lie in [0,100].
func (s DepthSpec) Expand() ([]float64, error) {
	values := s.Values
	if len(values) == 0 {
		if s.Max < s.Min || s.Intervals <= 0 {
			return nil, fmt.Errorf("sweep: invalid depth span min=%v max=%v intervals=%d", s.Min, s.Max, s.Intervals)
		}
		values = linspace(s.Min, s.Max, s.Intervals)
		if s.Distribution == DistributionSigmoid {
			for i, v := range values {
				values[i] = logistic(v)
			}
		}
	}
	for _, v := range values {
		if v < 0 || v > 100 {
			return nil, fmt.Errorf("%w: %v", haystack.ErrInvalidDepth, v)
		}
	}
	return values, nil
}

// Grid returns the full cartesian product of lengths × depths × repeats.
func Grid(lengths []int, depths []float64, needles []string, repeats int) []Trial {
	if repeats < 1 {
		repeats = 1
	}
	trials := make([]Trial, 0, len(lengths)*len(depths)*repeats)
	for _, length := range lengths {
		for _, depth := range depths {
			for rep := 0; rep < repeats; rep++ {
				trials = append(trials, Trial{
					Length:  length,
					Depth:   depth,
					Needles: needles,
					Repeat:  rep,
				})
			}
		}
	}
	return trials
}

// linspace returns n evenly spaced values over [min, max], endpoints
// included. n=1 yields just min.
func linspace(min, max float64, n int) []float64 {
	if n == 1 {
		return []float64{min}
	}
	step := (max - min) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}

// logistic maps a linear depth position onto an S-curve centred at 50%,
// concentrating sampled depths around the document middle. Endpoints pass
// through unchanged so 0 and 100 stay exact. Rounded to 3 decimals.
func logistic(x float64) float64 {
	if x == 0 || x == 100 {
		return x
	}
	v := 100 / (1 + math.Exp(-0.1*(x-50)))
	return math.Round(v*1000) / 1000
}
