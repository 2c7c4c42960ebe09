// Package payoff implements the probabilistic models that turn event
// probabilities into the scalar expected payoffs stored in a game's
// tensors. Each model computes its expectation exactly; Monte Carlo
// sampling exists only so the montecarlo package can cross-check the
// analytic values, and its output is never written into a tensor.
package payoff

import (
	"fmt"
	"math"
)

// Rand supplies uniform variates in [0, 1) for Bernoulli draws. It is
// threaded through every sampling call explicitly; there is no hidden
// global generator.
type Rand interface {
	Float64() float64
}

// Model maps a fixed set of event probabilities to a payoff.
type Model interface {
	// ExpectedValue returns the exact expectation of the payoff,
	// assuming independence across events.
	ExpectedValue() float64
	// Sample draws one payoff realization by sampling every event as an
	// independent Bernoulli trial.
	Sample(rng Rand) float64
}

func prob01(x float64, name string) error {
	if math.IsNaN(x) || x < 0.0 || x > 1.0 {
		return fmt.Errorf("%s must be in [0,1], got %v", name, x)
	}
	return nil
}

func finiteWeight(x float64, name string) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Errorf("%s must be finite, got %v", name, x)
	}
	return nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}
