// Package tensor holds dense three-dimensional payoff tables, one per
// player, indexed by the full strategy profile.
package tensor

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrOutOfRange is returned when a strategy index falls outside a
	// tensor's dimensions.
	ErrOutOfRange = errors.New("strategy index out of range")
	// ErrDegenerate is returned when a player would have zero strategies.
	ErrDegenerate = errors.New("degenerate strategy space")
	// ErrNotFinite is returned when a payoff cell is NaN or infinite.
	// Non-finite values are rejected at ingestion; they never reach a game.
	ErrNotFinite = errors.New("payoff value is not finite")
)

// Shape is the number of strategies per player.
type Shape [3]int

func (s Shape) Size() int {
	return s[0] * s[1] * s[2]
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s[0], s[1], s[2])
}

func (s Shape) validate() error {
	for i, n := range s {
		if n < 1 {
			return fmt.Errorf("%w: player %d has %d strategies", ErrDegenerate, i, n)
		}
	}
	return nil
}

// Tensor is one player's payoff as a function of the full strategy
// profile. It is constructed once and never mutated afterwards, so a
// single tensor may be shared read-only across several games.
type Tensor struct {
	shape Shape
	data  []float64
}

// New copies data into a tensor of the given shape. The data is laid out
// row-major: cell (s1, s2, s3) lives at s1*n2*n3 + s2*n3 + s3.
func New(shape Shape, data []float64) (*Tensor, error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.Size() {
		return nil, fmt.Errorf("shape %v requires %d values, got %d",
			shape, shape.Size(), len(data))
	}
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: cell %d is %v", ErrNotFinite, i, v)
		}
	}
	t := &Tensor{shape: shape, data: make([]float64, len(data))}
	copy(t.data, data)
	return t, nil
}

// Filled builds a tensor by evaluating fn at every strategy profile.
func Filled(shape Shape, fn func(s1, s2, s3 int) float64) (*Tensor, error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	data := make([]float64, shape.Size())
	i := 0
	for s1 := 0; s1 < shape[0]; s1++ {
		for s2 := 0; s2 < shape[1]; s2++ {
			for s3 := 0; s3 < shape[2]; s3++ {
				data[i] = fn(s1, s2, s3)
				i++
			}
		}
	}
	return New(shape, data)
}

func (t *Tensor) Shape() Shape {
	return t.shape
}

// At returns the payoff at (s1, s2, s3), or ErrOutOfRange if any index
// falls outside the tensor's dimensions. Indices are never clamped.
func (t *Tensor) At(s1, s2, s3 int) (float64, error) {
	if s1 < 0 || s1 >= t.shape[0] ||
		s2 < 0 || s2 >= t.shape[1] ||
		s3 < 0 || s3 >= t.shape[2] {
		return 0, fmt.Errorf("%w: (%d, %d, %d) not within %v",
			ErrOutOfRange, s1, s2, s3, t.shape)
	}
	return t.Cell(s1, s2, s3), nil
}

// Cell is the unchecked variant of At, for hot loops whose indices have
// already been validated.
func (t *Tensor) Cell(s1, s2, s3 int) float64 {
	return t.data[(s1*t.shape[1]+s2)*t.shape[2]+s3]
}

// Values returns a copy of the backing data in row-major order.
func (t *Tensor) Values() []float64 {
	out := make([]float64, len(t.data))
	copy(out, t.data)
	return out
}
