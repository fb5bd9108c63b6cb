package sampler

import (
	"errors"
	"fmt"
	"math"
)

// Distribution is an immutable weighted discrete distribution over the
// the indices of its weights.
type Distribution struct {
	cumulative []float64
}

// NewDistribution normalises weights into a cumulative table. Weights must
// be non-negative and finite with a positive sum.
func NewDistribution(weights []float64) (Distribution, error) {
	if len(weights) == 0 {
		return Distribution{}, errors.New("distribution: no weights")
	}
	var total float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return Distribution{}, fmt.Errorf("distribution: weight %d is %v", i, w)
		}
		total += w
	}
	if total <= 0 {
		return Distribution{}, errors.New("distribution: weights sum to zero")
	}

	cum := make([]float64, len(weights))
	var acc float64
	for i, w := range weights {
		acc += w
		cum[i] = acc / total
	}
	return Distribution{cumulative: cum}, nil
}

// Pick maps a uniform draw u in [0,1) to the smallest index whose
// cumulative weight is >= u. Rounding drift in the last bucket selects the
// final index.
func (d Distribution) Pick(u float64) int {
	for i, c := range d.cumulative {
		if c >= u {
			return i
		}
	}
	return len(d.cumulative) - 1
}
