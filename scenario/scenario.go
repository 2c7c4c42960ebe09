package scenario

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/strategicsim/triad/game"
	"github.com/strategicsim/triad/payoff"
	"github.com/strategicsim/triad/tensor"
)

// Scenario couples a parsed spec with loaded probability rows and the
// payoff tensors evaluated from them.
type Scenario struct {
	Spec    *Spec
	Tensors [game.NumPlayers]*tensor.Tensor

	rows map[game.Profile]Row
}

// Load reads a scenario yaml and its probability CSV and evaluates the
// tensors.
func Load(specPath, csvPath string) (*Scenario, error) {
	spec, err := LoadSpec(specPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := ReadCSV(f, spec)
	if err != nil {
		return nil, err
	}
	return New(spec, rows)
}

// New builds a scenario from already-parsed rows.
func New(spec *Spec, rows []Row) (*Scenario, error) {
	tensors, err := BuildTensors(spec, rows)
	if err != nil {
		return nil, err
	}
	sc := &Scenario{
		Spec:    spec,
		Tensors: tensors,
		rows:    make(map[game.Profile]Row, len(rows)),
	}
	for _, r := range rows {
		sc.rows[r.Profile] = r
	}
	log.Info().Str("scenario", spec.Name).
		Stringer("shape", spec.Shape()).
		Int("profiles", len(rows)).
		Msg("scenario loaded")
	return sc, nil
}

// Game constructs the equilibrium engine over the scenario's tensors.
func (sc *Scenario) Game() (*game.Game, error) {
	return game.New(sc.Tensors[0], sc.Tensors[1], sc.Tensors[2])
}

// ModelFor rebuilds the analytic payoff model of one player at one
// profile, for Monte Carlo cross-checking.
func (sc *Scenario) ModelFor(player int, p game.Profile) (payoff.Model, error) {
	if player < 0 || player >= game.NumPlayers {
		return nil, fmt.Errorf("%w: %d", game.ErrBadPlayer, player)
	}
	row, ok := sc.rows[p]
	if !ok {
		return nil, fmt.Errorf("no probabilities loaded for profile %v", p)
	}
	return sc.Spec.Players[player].BuildModel(row.Probs[player])
}
