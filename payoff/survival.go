package payoff

import "fmt"

// Bonus is an additive contribution conditioned on one event.
type Bonus struct {
	Name   string
	Weight float64
}

// SurvivalConfig describes a two-branch payoff: if the survival event
// holds, the payoff is Base plus the expected bonuses; otherwise only
// the fallback bonus can contribute. The expectation is clamped to
// [0, Cap].
type SurvivalConfig struct {
	Base     float64
	Bonuses  []Bonus
	Fallback Bonus
	Cap      float64
}

// Survival is the branch-conditional payoff model.
type Survival struct {
	cfg       SurvivalConfig
	pSurvive  float64
	bonuses   []float64 // P(bonus event = yes)
	pFallback float64
}

func NewSurvival(cfg SurvivalConfig, pSurvive float64, bonusProbs []float64, pFallback float64) (*Survival, error) {
	if len(bonusProbs) != len(cfg.Bonuses) {
		return nil, fmt.Errorf("expected %d bonus probabilities, got %d",
			len(cfg.Bonuses), len(bonusProbs))
	}
	if cfg.Cap <= 0 {
		return nil, fmt.Errorf("cap must be positive, got %v", cfg.Cap)
	}
	if err := finiteWeight(cfg.Base, "base"); err != nil {
		return nil, err
	}
	if err := prob01(pSurvive, "P(survival)"); err != nil {
		return nil, err
	}
	for i, b := range cfg.Bonuses {
		if err := finiteWeight(b.Weight, "bonus "+b.Name+" weight"); err != nil {
			return nil, err
		}
		if err := prob01(bonusProbs[i], "P("+b.Name+")"); err != nil {
			return nil, err
		}
	}
	if err := finiteWeight(cfg.Fallback.Weight, "fallback weight"); err != nil {
		return nil, err
	}
	if err := prob01(pFallback, "P("+cfg.Fallback.Name+")"); err != nil {
		return nil, err
	}
	m := &Survival{cfg: cfg, pSurvive: pSurvive, pFallback: pFallback}
	m.bonuses = append(m.bonuses, bonusProbs...)
	return m, nil
}

// ExpectedValue is exact by linearity within each branch:
// E = pS*(base + Σ wi*pi) + (1-pS)*wF*pF, clamped to [0, Cap].
func (m *Survival) ExpectedValue() float64 {
	surviveBranch := m.cfg.Base
	for i, b := range m.cfg.Bonuses {
		surviveBranch += b.Weight * m.bonuses[i]
	}
	noSurviveBranch := m.cfg.Fallback.Weight * m.pFallback
	expected := m.pSurvive*surviveBranch + (1.0-m.pSurvive)*noSurviveBranch
	return clamp(expected, 0.0, m.cfg.Cap)
}

// Sample draws the survival event first; the losing branch ignores the
// bonus events and the winning branch ignores the fallback.
// Realizations are not clamped, only the expectation is.
func (m *Survival) Sample(rng Rand) float64 {
	if rng.Float64() < m.pSurvive {
		payoff := m.cfg.Base
		for i, b := range m.cfg.Bonuses {
			if rng.Float64() < m.bonuses[i] {
				payoff += b.Weight
			}
		}
		return payoff
	}
	if rng.Float64() < m.pFallback {
		return m.cfg.Fallback.Weight
	}
	return 0.0
}
