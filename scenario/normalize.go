package scenario

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/strategicsim/triad/tensor"
)

// MinMax rescales a tensor's values linearly into [lo, hi]. A constant
// tensor maps every cell to lo. The input is never mutated; a fresh
// tensor is returned.
func MinMax(t *tensor.Tensor, lo, hi float64) (*tensor.Tensor, error) {
	if hi <= lo {
		return nil, fmt.Errorf("invalid target range [%v, %v]", lo, hi)
	}
	values := t.Values()
	minVal := floats.Min(values)
	maxVal := floats.Max(values)
	if minVal == maxVal {
		for i := range values {
			values[i] = lo
		}
		return tensor.New(t.Shape(), values)
	}
	for i, v := range values {
		values[i] = (v-minVal)/(maxVal-minVal)*(hi-lo) + lo
	}
	return tensor.New(t.Shape(), values)
}

// Rescale maps payoffs from the 0-100 point scale onto 0-scale.
func Rescale(t *tensor.Tensor, scale float64) (*tensor.Tensor, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", scale)
	}
	values := t.Values()
	floats.Scale(scale/100.0, values)
	return tensor.New(t.Shape(), values)
}

// NormalizedCopy applies Rescale to all three tensors, preserving the
// relative ordering that the equilibrium search depends on.
func (sc *Scenario) NormalizedCopy(scale float64) (*Scenario, error) {
	out := &Scenario{Spec: sc.Spec, rows: sc.rows}
	for i, t := range sc.Tensors {
		nt, err := Rescale(t, scale)
		if err != nil {
			return nil, err
		}
		out.Tensors[i] = nt
	}
	return out, nil
}
