package payoff

import (
	"fmt"
)

// maxStagedEvents bounds the exact enumeration, which visits every
// boolean combination of builder and gate outcomes.
const maxStagedEvents = 24

// Builder is a Stage I event: when it comes up true it adds Weight
// points to the bank.
type Builder struct {
	Name   string
	Weight float64
}

// Gate is a Stage II event: when it comes up false the accumulated bank
// is multiplied by Multiplier.
type Gate struct {
	Name       string
	Multiplier float64
}

// StagedBankConfig describes the add-then-degrade structure. It is plain
// data passed in by the caller, so several scenarios with different
// weights can be evaluated side by side.
type StagedBankConfig struct {
	Builders []Builder
	Gates    []Gate
}

// StagedBank builds a payoff bank additively from builder events, then
// degrades it multiplicatively for every gate event that fails.
type StagedBank struct {
	cfg      StagedBankConfig
	builders []float64 // P(builder = yes)
	gates    []float64 // P(gate = yes)
}

// NewStagedBank binds a config to the per-event success probabilities,
// given in the config's event order.
func NewStagedBank(cfg StagedBankConfig, builderProbs, gateProbs []float64) (*StagedBank, error) {
	if len(builderProbs) != len(cfg.Builders) {
		return nil, fmt.Errorf("expected %d builder probabilities, got %d",
			len(cfg.Builders), len(builderProbs))
	}
	if len(gateProbs) != len(cfg.Gates) {
		return nil, fmt.Errorf("expected %d gate probabilities, got %d",
			len(cfg.Gates), len(gateProbs))
	}
	if n := len(cfg.Builders) + len(cfg.Gates); n == 0 || n > maxStagedEvents {
		return nil, fmt.Errorf("staged bank must have between 1 and %d events, got %d",
			maxStagedEvents, n)
	}
	for i, b := range cfg.Builders {
		if err := finiteWeight(b.Weight, "builder "+b.Name+" weight"); err != nil {
			return nil, err
		}
		if err := prob01(builderProbs[i], "P("+b.Name+")"); err != nil {
			return nil, err
		}
	}
	for i, gt := range cfg.Gates {
		if err := finiteWeight(gt.Multiplier, "gate "+gt.Name+" multiplier"); err != nil {
			return nil, err
		}
		if err := prob01(gateProbs[i], "P("+gt.Name+")"); err != nil {
			return nil, err
		}
	}
	m := &StagedBank{cfg: cfg}
	m.builders = append(m.builders, builderProbs...)
	m.gates = append(m.gates, gateProbs...)
	return m, nil
}

// Realize computes the payoff for one boolean outcome of every event.
func (m *StagedBank) Realize(builders, gates []bool) float64 {
	bank := 0.0
	for i, b := range m.cfg.Builders {
		if builders[i] {
			bank += b.Weight
		}
	}
	for i, g := range m.cfg.Gates {
		if !gates[i] {
			bank *= g.Multiplier
		}
	}
	return bank
}

// ExpectedValue enumerates every boolean combination of events and sums
// probability-weighted realizations. Exact under independence.
func (m *StagedBank) ExpectedValue() float64 {
	nb, ng := len(m.builders), len(m.gates)
	builders := make([]bool, nb)
	gates := make([]bool, ng)

	expected := 0.0
	for mask := 0; mask < 1<<(nb+ng); mask++ {
		prob := 1.0
		for i := 0; i < nb; i++ {
			builders[i] = mask&(1<<i) != 0
			if builders[i] {
				prob *= m.builders[i]
			} else {
				prob *= 1.0 - m.builders[i]
			}
		}
		for i := 0; i < ng; i++ {
			gates[i] = mask&(1<<(nb+i)) != 0
			if gates[i] {
				prob *= m.gates[i]
			} else {
				prob *= 1.0 - m.gates[i]
			}
		}
		expected += prob * m.Realize(builders, gates)
	}
	return expected
}

// Sample draws every event independently and realizes the payoff.
func (m *StagedBank) Sample(rng Rand) float64 {
	builders := make([]bool, len(m.builders))
	gates := make([]bool, len(m.gates))
	for i, p := range m.builders {
		builders[i] = rng.Float64() < p
	}
	for i, p := range m.gates {
		gates[i] = rng.Float64() < p
	}
	return m.Realize(builders, gates)
}

// MaxBank is the bank value when every builder succeeds.
func (m *StagedBank) MaxBank() float64 {
	total := 0.0
	for _, b := range m.cfg.Builders {
		total += b.Weight
	}
	return total
}
