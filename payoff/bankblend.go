package payoff

import "fmt"

// Goal is one additive contribution to a bank, weighted by its share of
// the full bank.
type Goal struct {
	Name   string
	Weight float64
}

// Bank is an additive collection of goals. Scale is the value of a full
// bank (every goal achieved); Weight is the bank's share of the final
// blended payoff.
type Bank struct {
	Weight float64
	Scale  float64
	Goals  []Goal
}

// BankBlendConfig blends any number of additive banks into one payoff.
// The reference scenario uses two banks weighted 0.60/0.40.
type BankBlendConfig struct {
	Banks []Bank
}

// BankBlend is the multi-bank additive payoff model. Its expectation is
// exact by linearity of expectation.
type BankBlend struct {
	cfg   BankBlendConfig
	goals [][]float64 // P(goal achieved), per bank
}

// NewBankBlend binds the config to per-goal achievement probabilities,
// one inner slice per bank, in the config's goal order.
func NewBankBlend(cfg BankBlendConfig, goalProbs [][]float64) (*BankBlend, error) {
	if len(cfg.Banks) == 0 {
		return nil, fmt.Errorf("bank blend requires at least one bank")
	}
	if len(goalProbs) != len(cfg.Banks) {
		return nil, fmt.Errorf("expected probabilities for %d banks, got %d",
			len(cfg.Banks), len(goalProbs))
	}
	m := &BankBlend{cfg: cfg}
	for bi, bank := range cfg.Banks {
		if err := finiteWeight(bank.Weight, fmt.Sprintf("bank %d weight", bi)); err != nil {
			return nil, err
		}
		if err := finiteWeight(bank.Scale, fmt.Sprintf("bank %d scale", bi)); err != nil {
			return nil, err
		}
		if len(goalProbs[bi]) != len(bank.Goals) {
			return nil, fmt.Errorf("bank %d expects %d goal probabilities, got %d",
				bi, len(bank.Goals), len(goalProbs[bi]))
		}
		for gi, goal := range bank.Goals {
			if err := finiteWeight(goal.Weight, "goal "+goal.Name+" weight"); err != nil {
				return nil, err
			}
			if err := prob01(goalProbs[bi][gi], "P("+goal.Name+")"); err != nil {
				return nil, err
			}
		}
		probs := append([]float64(nil), goalProbs[bi]...)
		m.goals = append(m.goals, probs)
	}
	return m, nil
}

func (m *BankBlend) ExpectedValue() float64 {
	final := 0.0
	for bi, bank := range m.cfg.Banks {
		value := 0.0
		for gi, goal := range bank.Goals {
			value += goal.Weight * m.goals[bi][gi]
		}
		final += bank.Weight * bank.Scale * value
	}
	return final
}

func (m *BankBlend) Sample(rng Rand) float64 {
	final := 0.0
	for bi, bank := range m.cfg.Banks {
		value := 0.0
		for gi, goal := range bank.Goals {
			if rng.Float64() < m.goals[bi][gi] {
				value += goal.Weight
			}
		}
		final += bank.Weight * bank.Scale * value
	}
	return final
}
