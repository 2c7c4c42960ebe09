// Package montecarlo implements a seedable Monte Carlo estimator for the
// payoff models. It exists purely as a numerical sanity check of the
// analytic expectations; its output is never fed into the tensors used
// for equilibrium search.
package montecarlo

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/strategicsim/triad/payoff"
	"github.com/strategicsim/triad/stats"
)

// DefaultIterations matches the reference cross-check sample size.
const DefaultIterations = 200_000

// DefaultTolerance is the absolute agreement expected between the
// analytic expectation and a DefaultIterations-sized estimate.
const DefaultTolerance = 0.5

// Result summarizes one estimation run.
type Result struct {
	Mean          float64 `yaml:"mean"`
	Stdev         float64 `yaml:"stdev"`
	StandardError float64 `yaml:"stderr"`
	Min           float64 `yaml:"min"`
	Max           float64 `yaml:"max"`
	Iterations    int     `yaml:"iterations"`
	Seed          uint64  `yaml:"seed"`

	// Draws holds the raw realizations when recording is on; used for
	// histograms, omitted from marshaled reports.
	Draws []float64 `yaml:"-"`
}

// ConfidenceInterval99 returns the 99% confidence interval of the mean.
func (r *Result) ConfidenceInterval99() (lo, hi float64) {
	delta := stats.Z99 * r.StandardError
	return r.Mean - delta, r.Mean + delta
}

// CrossCheck is the comparison of an estimate against the exact
// expectation of the same model.
type CrossCheck struct {
	Result    `yaml:",inline"`
	Analytic  float64 `yaml:"analytic"`
	AbsError  float64 `yaml:"abs-error"`
	Tolerance float64 `yaml:"tolerance"`
	Agrees    bool    `yaml:"agrees"`
}

// Estimator runs repeated model draws across worker goroutines. Results
// are deterministic for a fixed (seed, threads) pair: every worker owns
// a generator derived from the caller's seed.
type Estimator struct {
	threads     int
	recordDraws bool
}

func New() *Estimator {
	return &Estimator{threads: max(1, runtime.NumCPU())}
}

func (e *Estimator) SetThreads(n int) {
	e.threads = max(1, n)
}

func (e *Estimator) Threads() int {
	return e.threads
}

// SetRecordDraws controls whether Estimate keeps every realization.
func (e *Estimator) SetRecordDraws(b bool) {
	e.recordDraws = b
}

func workerSeed(seed uint64, worker int) []byte {
	var b [32]byte
	binary.LittleEndian.PutUint64(b[0:], seed)
	binary.LittleEndian.PutUint64(b[8:], uint64(worker)+1)
	binary.LittleEndian.PutUint64(b[16:], seed^0x9e3779b97f4a7c15)
	return b[:]
}

// Estimate draws the model iters times and returns the running stats.
func (e *Estimator) Estimate(ctx context.Context, m payoff.Model, iters int, seed uint64) (*Result, error) {
	if iters <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", iters)
	}
	threads := min(e.threads, iters)

	perWorker := make([]stats.Statistic, threads)
	draws := make([][]float64, threads)

	eg, ctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		// Spread the remainder over the first workers.
		n := iters / threads
		if t < iters%threads {
			n++
		}
		t := t
		eg.Go(func() error {
			rng := frand.NewCustom(workerSeed(seed, t), 1024, 12)
			if e.recordDraws {
				draws[t] = make([]float64, 0, n)
			}
			for i := 0; i < n; i++ {
				if i%4096 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				v := m.Sample(rng)
				perWorker[t].Push(v)
				if e.recordDraws {
					draws[t] = append(draws[t], v)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var combined stats.Statistic
	for t := range perWorker {
		combined.Combine(&perWorker[t])
	}
	res := &Result{
		Mean:          combined.Mean(),
		Stdev:         combined.Stdev(),
		StandardError: combined.StandardError(),
		Min:           combined.Min(),
		Max:           combined.Max(),
		Iterations:    combined.Iterations(),
		Seed:          seed,
	}
	if e.recordDraws {
		for t := range draws {
			res.Draws = append(res.Draws, draws[t]...)
		}
	}
	log.Debug().Int("iterations", iters).Int("threads", threads).
		Float64("mean", res.Mean).Float64("stderr", res.StandardError).
		Msg("montecarlo-estimate")
	return res, nil
}

// CrossCheck estimates the model and compares against its exact
// expectation within an absolute tolerance.
func (e *Estimator) CrossCheck(ctx context.Context, m payoff.Model, iters int, seed uint64, tol float64) (*CrossCheck, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	res, err := e.Estimate(ctx, m, iters, seed)
	if err != nil {
		return nil, err
	}
	analytic := m.ExpectedValue()
	cc := &CrossCheck{
		Result:    *res,
		Analytic:  analytic,
		AbsError:  math.Abs(res.Mean - analytic),
		Tolerance: tol,
	}
	cc.Agrees = cc.AbsError <= tol
	return cc, nil
}
