package game

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/strategicsim/triad/tensor"
)

func mustTensor(t *testing.T, shape tensor.Shape, fn func(s1, s2, s3 int) float64) *tensor.Tensor {
	t.Helper()
	tr, err := tensor.Filled(shape, fn)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

// identicalGame gives every player the same payoff function.
func identicalGame(t *testing.T, shape tensor.Shape, fn func(s1, s2, s3 int) float64) *Game {
	t.Helper()
	g, err := New(
		mustTensor(t, shape, fn),
		mustTensor(t, shape, fn),
		mustTensor(t, shape, fn),
	)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestShapeMismatch(t *testing.T) {
	is := is.New(t)
	zero := func(s1, s2, s3 int) float64 { return 0 }
	_, err := New(
		mustTensor(t, tensor.Shape{2, 4, 2}, zero),
		mustTensor(t, tensor.Shape{2, 4, 2}, zero),
		mustTensor(t, tensor.Shape{2, 3, 2}, zero),
	)
	is.True(errors.Is(err, ErrShapeMismatch))
	// The error reports which tensor disagrees and both shapes.
	is.True(err != nil)
	is.True(containsAll(err.Error(), "tensor 2", "(2, 3, 2)", "(2, 4, 2)"))
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func TestPayoffLookup(t *testing.T) {
	is := is.New(t)
	g := identicalGame(t, tensor.Shape{2, 2, 2}, func(s1, s2, s3 int) float64 {
		return float64(4*s1 + 2*s2 + s3)
	})
	v, err := g.Payoff(0, Profile{1, 0, 1})
	is.NoErr(err)
	is.Equal(v, 5.0)

	_, err = g.Payoff(3, Profile{0, 0, 0})
	is.True(errors.Is(err, ErrBadPlayer))
	_, err = g.Payoff(-1, Profile{0, 0, 0})
	is.True(errors.Is(err, ErrBadPlayer))
	_, err = g.Payoff(0, Profile{2, 0, 0})
	is.True(errors.Is(err, tensor.ErrOutOfRange))
}

func TestBestResponses(t *testing.T) {
	is := is.New(t)
	// Player 1 prefers the highest s2 when s1 = 1, the lowest otherwise.
	p1payoff := func(s1, s2, s3 int) float64 {
		if s1 == 1 {
			return float64(s2)
		}
		return -float64(s2)
	}
	shape := tensor.Shape{2, 4, 2}
	zero := func(s1, s2, s3 int) float64 { return 0 }
	g, err := New(
		mustTensor(t, shape, zero),
		mustTensor(t, shape, p1payoff),
		mustTensor(t, shape, zero),
	)
	is.NoErr(err)

	br, err := g.BestResponses(1, [2]int{1, 0})
	is.NoErr(err)
	is.Equal(br, []int{3})

	br, err = g.BestResponses(1, [2]int{0, 1})
	is.NoErr(err)
	is.Equal(br, []int{0})

	_, err = g.BestResponses(5, [2]int{0, 0})
	is.True(errors.Is(err, ErrBadPlayer))
	_, err = g.BestResponses(1, [2]int{2, 0})
	is.True(errors.Is(err, tensor.ErrOutOfRange))
}

func TestBestResponsesTies(t *testing.T) {
	is := is.New(t)
	// Player 0's payoff ignores its own strategy: both are best responses.
	g := identicalGame(t, tensor.Shape{2, 2, 2}, func(s1, s2, s3 int) float64 {
		return float64(s2 + s3)
	})
	br, err := g.BestResponses(0, [2]int{1, 1})
	is.NoErr(err)
	is.Equal(br, []int{0, 1})
}

func TestSinglePoint(t *testing.T) {
	is := is.New(t)
	g := identicalGame(t, tensor.Shape{1, 1, 1}, func(s1, s2, s3 int) float64 {
		return 42
	})
	eqs := g.PureNashEquilibria()
	is.Equal(eqs, []Profile{{0, 0, 0}})
}

func TestUniqueEquilibriumAtOrigin(t *testing.T) {
	is := is.New(t)
	// Every player strictly prefers strategy 0 given any fixed others.
	g := identicalGame(t, tensor.Shape{2, 2, 2}, func(s1, s2, s3 int) float64 {
		return -float64(s1 + s2 + s3)
	})
	eqs := g.PureNashEquilibria()
	is.Equal(eqs, []Profile{{0, 0, 0}})
}

func TestCommonInterestGame(t *testing.T) {
	is := is.New(t)
	// P[s1,s2,s3] = s1+s2+s3 for everyone: unique equilibrium (1,1,1)
	// with payoff 3 for every player.
	g := identicalGame(t, tensor.Shape{2, 2, 2}, func(s1, s2, s3 int) float64 {
		return float64(s1 + s2 + s3)
	})
	eqs := g.PureNashEquilibria()
	is.Equal(eqs, []Profile{{1, 1, 1}})
	for player := 0; player < NumPlayers; player++ {
		v, err := g.Payoff(player, eqs[0])
		is.NoErr(err)
		is.Equal(v, 3.0)
	}
}

func TestIsNashEquilibriumRange(t *testing.T) {
	is := is.New(t)
	g := identicalGame(t, tensor.Shape{2, 2, 2}, func(s1, s2, s3 int) float64 {
		return 0
	})
	_, err := g.IsNashEquilibrium(Profile{0, 2, 0})
	is.True(errors.Is(err, tensor.ErrOutOfRange))

	// A constant game: every profile is an equilibrium.
	ok, err := g.IsNashEquilibrium(Profile{1, 0, 1})
	is.NoErr(err)
	is.True(ok)
	is.Equal(len(g.PureNashEquilibria()), 8)
}

// fixture333 is an asymmetric-payoff 3x3x3 game with no structure to
// exploit, used for cross-checking the exhaustive search.
func fixture333(t *testing.T) *Game {
	t.Helper()
	p1 := []float64{
		10, 8, 6, 7, 9, 5, 4, 6, 8,
		9, 7, 5, 11, 6, 8, 3, 10, 7,
		6, 5, 9, 8, 10, 4, 7, 3, 6,
	}
	p2 := []float64{
		8, 9, 7, 10, 5, 6, 4, 8, 9,
		7, 6, 10, 9, 8, 4, 5, 7, 6,
		6, 8, 5, 7, 9, 10, 8, 4, 7,
	}
	p3 := []float64{
		7, 10, 8, 6, 5, 9, 8, 7, 4,
		9, 6, 7, 5, 8, 10, 7, 9, 5,
		8, 7, 6, 10, 4, 8, 6, 9, 7,
	}
	shape := tensor.Shape{3, 3, 3}
	t1, err := tensor.New(shape, p1)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := tensor.New(shape, p2)
	if err != nil {
		t.Fatal(err)
	}
	t3, err := tensor.New(shape, p3)
	if err != nil {
		t.Fatal(err)
	}
	g, err := New(t1, t2, t3)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestSearchMatchesPredicate(t *testing.T) {
	is := is.New(t)
	g := fixture333(t)

	found := g.PureNashEquilibria()
	shape := g.NumStrategies()

	// Brute-force re-verification: the search returns exactly the
	// profiles the predicate accepts, in lexicographic order.
	var expected []Profile
	for s1 := 0; s1 < shape[0]; s1++ {
		for s2 := 0; s2 < shape[1]; s2++ {
			for s3 := 0; s3 < shape[2]; s3++ {
				ok, err := g.IsNashEquilibrium(Profile{s1, s2, s3})
				is.NoErr(err)
				if ok {
					expected = append(expected, Profile{s1, s2, s3})
				}
			}
		}
	}
	is.Equal(found, expected)
}

func TestSearchIdempotent(t *testing.T) {
	is := is.New(t)
	g := fixture333(t)
	first := g.PureNashEquilibria()
	second := g.PureNashEquilibria()
	is.Equal(first, second)
}

func TestParallelSearchMatchesSerial(t *testing.T) {
	is := is.New(t)
	g := fixture333(t)
	serial := g.PureNashEquilibria()

	for _, threads := range []int{1, 2, 3, 8} {
		g.SetThreads(threads)
		parallel, err := g.ParallelPureNashEquilibria(context.Background())
		is.NoErr(err)
		is.Equal(parallel, serial)
	}
}

func TestProfileOrdering(t *testing.T) {
	is := is.New(t)
	is.True(Profile{0, 1, 2}.Less(Profile{1, 0, 0}))
	is.True(Profile{1, 0, 2}.Less(Profile{1, 1, 0}))
	is.True(!Profile{1, 1, 1}.Less(Profile{1, 1, 1}))
	is.Equal(Profile{0, 1, 2}.String(), "(0, 1, 2)")
}
