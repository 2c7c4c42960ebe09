// Package game implements a three-player normal-form game over dense
// payoff tensors: payoff lookup, best responses, and exhaustive search
// for pure-strategy Nash equilibria.
package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/strategicsim/triad/tensor"
)

// NumPlayers is fixed; the engine models exactly three players.
const NumPlayers = 3

var (
	// ErrShapeMismatch is returned at construction when the three payoff
	// tensors do not share an identical shape.
	ErrShapeMismatch = errors.New("payoff tensors have mismatched shapes")
	// ErrBadPlayer is returned when a player index is not 0, 1 or 2.
	ErrBadPlayer = errors.New("player index out of range")
)

// Profile is one strategy choice per player.
type Profile [NumPlayers]int

func (p Profile) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p[0], p[1], p[2])
}

// Less orders profiles lexicographically, the canonical enumeration
// order of the equilibrium search.
func (p Profile) Less(o Profile) bool {
	for i := 0; i < NumPlayers; i++ {
		if p[i] != o[i] {
			return p[i] < o[i]
		}
	}
	return false
}

// Game owns three payoff tensors of identical shape. It is stateless
// after construction: every query is a pure function of the stored
// tensors and its arguments, so one Game may be queried concurrently.
type Game struct {
	payoffs [NumPlayers]*tensor.Tensor
	shape   tensor.Shape

	threads int
}

// New validates that the three supplied tensors share one shape and
// fails fast otherwise; shape problems are never deferred to query
// time. The tensors are treated as immutable inputs.
func New(p1, p2, p3 *tensor.Tensor) (*Game, error) {
	g := &Game{
		payoffs: [NumPlayers]*tensor.Tensor{p1, p2, p3},
		threads: 1,
	}
	for i, t := range g.payoffs {
		if t == nil {
			return nil, fmt.Errorf("payoff tensor %d is nil", i)
		}
	}
	g.shape = p1.Shape()
	for i, t := range g.payoffs {
		if t.Shape() != g.shape {
			return nil, fmt.Errorf("%w: tensor %d has shape %v, expected %v",
				ErrShapeMismatch, i, t.Shape(), g.shape)
		}
	}
	return g, nil
}

// NumStrategies returns the per-player strategy counts (n1, n2, n3).
func (g *Game) NumStrategies() tensor.Shape {
	return g.shape
}

// SetThreads controls the worker count used by ParallelPureNashEquilibria.
func (g *Game) SetThreads(n int) {
	g.threads = max(1, n)
}

func (g *Game) Threads() int {
	return g.threads
}

// Payoff returns the given player's payoff at a strategy profile.
func (g *Game) Payoff(player int, p Profile) (float64, error) {
	if player < 0 || player >= NumPlayers {
		return 0, fmt.Errorf("%w: %d", ErrBadPlayer, player)
	}
	return g.payoffs[player].At(p[0], p[1], p[2])
}

// profileFor assembles a full profile from a player's candidate strategy
// and the other two players' fixed strategies, the latter given in
// ascending player order.
func profileFor(player, strat int, others [2]int) Profile {
	switch player {
	case 0:
		return Profile{strat, others[0], others[1]}
	case 1:
		return Profile{others[0], strat, others[1]}
	default:
		return Profile{others[0], others[1], strat}
	}
}

// BestResponses returns every strategy that maximizes the player's
// payoff holding the other two players fixed; others contains those
// players' strategies in ascending player order. Payoff ties are all
// reported, compared with exact floating equality, and the result is in
// ascending strategy order. A single left-to-right scan tracks the
// running maximum; a strictly larger payoff clears the accumulated ties.
func (g *Game) BestResponses(player int, others [2]int) ([]int, error) {
	if player < 0 || player >= NumPlayers {
		return nil, fmt.Errorf("%w: %d", ErrBadPlayer, player)
	}
	// Validate the fixed strategies up front so the scan below can use
	// unchecked lookups.
	probe := profileFor(player, 0, others)
	if _, err := g.payoffs[player].At(probe[0], probe[1], probe[2]); err != nil {
		return nil, err
	}

	best := math.Inf(-1)
	var responses []int
	for k := 0; k < g.shape[player]; k++ {
		p := profileFor(player, k, others)
		v := g.payoffs[player].Cell(p[0], p[1], p[2])
		if v > best {
			best = v
			responses = append(responses[:0], k)
		} else if v == best {
			responses = append(responses, k)
		}
	}
	return responses, nil
}

// isBestResponse reports whether strat maximizes the player's payoff
// given the others' fixed strategies. Unchecked; indices must be valid.
func (g *Game) isBestResponse(player, strat int, others [2]int) bool {
	cur := profileFor(player, strat, others)
	current := g.payoffs[player].Cell(cur[0], cur[1], cur[2])
	for k := 0; k < g.shape[player]; k++ {
		alt := profileFor(player, k, others)
		if g.payoffs[player].Cell(alt[0], alt[1], alt[2]) > current {
			return false
		}
	}
	return true
}

// IsNashEquilibrium reports whether no player can gain by deviating
// unilaterally from the profile. Joint deviations are not considered.
func (g *Game) IsNashEquilibrium(p Profile) (bool, error) {
	if _, err := g.payoffs[0].At(p[0], p[1], p[2]); err != nil {
		return false, err
	}
	return g.isNash(p), nil
}

func (g *Game) isNash(p Profile) bool {
	return g.isBestResponse(0, p[0], [2]int{p[1], p[2]}) &&
		g.isBestResponse(1, p[1], [2]int{p[0], p[2]}) &&
		g.isBestResponse(2, p[2], [2]int{p[0], p[1]})
}

// PureNashEquilibria enumerates all n1*n2*n3 profiles in lexicographic
// order and returns those that are Nash equilibria. There may be zero,
// one, or many; there is no early termination. Repeated calls return
// identical sequences. Cost grows as n1*n2*n3*(n1+n2+n3).
func (g *Game) PureNashEquilibria() []Profile {
	var equilibria []Profile
	for s1 := 0; s1 < g.shape[0]; s1++ {
		for s2 := 0; s2 < g.shape[1]; s2++ {
			for s3 := 0; s3 < g.shape[2]; s3++ {
				p := Profile{s1, s2, s3}
				if g.isNash(p) {
					equilibria = append(equilibria, p)
				}
			}
		}
	}
	return equilibria
}

// ParallelPureNashEquilibria partitions the outer strategy axis across
// workers. Each profile's check is independent, so the slices merge
// freely; the merged result is re-sorted into lexicographic order to
// match PureNashEquilibria exactly.
func (g *Game) ParallelPureNashEquilibria(ctx context.Context) ([]Profile, error) {
	threads := g.threads
	if threads <= 1 {
		threads = max(1, runtime.NumCPU())
	}
	if threads > g.shape[0] {
		threads = g.shape[0]
	}

	results := make([][]Profile, threads)
	eg, ctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		t := t
		eg.Go(func() error {
			var found []Profile
			for s1 := t; s1 < g.shape[0]; s1 += threads {
				if err := ctx.Err(); err != nil {
					return err
				}
				for s2 := 0; s2 < g.shape[1]; s2++ {
					for s3 := 0; s3 < g.shape[2]; s3++ {
						p := Profile{s1, s2, s3}
						if g.isNash(p) {
							found = append(found, p)
						}
					}
				}
			}
			results[t] = found
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var merged []Profile
	for _, r := range results {
		merged = append(merged, r...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Less(merged[j])
	})
	return merged, nil
}
