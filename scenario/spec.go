// Package scenario is the reporting/IO layer around the engine: it
// reads a game description plus per-profile event probabilities,
// evaluates the payoff models, and builds the three payoff tensors.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strategicsim/triad/payoff"
)

// Model type names accepted in a scenario file.
const (
	ModelStagedBank = "staged-bank"
	ModelSurvival   = "survival"
	ModelBankBlend  = "bank-blend"
)

// EventWeight names an event and its additive weight.
type EventWeight struct {
	Event  string  `yaml:"event"`
	Weight float64 `yaml:"weight"`
}

// EventMult names a gate event and the multiplier applied when it fails.
type EventMult struct {
	Event      string  `yaml:"event"`
	Multiplier float64 `yaml:"multiplier"`
}

// BankSpec describes one additive bank of a bank-blend model.
type BankSpec struct {
	Weight float64       `yaml:"weight"`
	Scale  float64       `yaml:"scale"`
	Goals  []EventWeight `yaml:"goals"`
}

// ModelSpec is the per-player payoff formula. Exactly the fields for
// the named type are read; the rest stay zero.
type ModelSpec struct {
	Type string `yaml:"type"`

	// staged-bank
	Builders []EventWeight `yaml:"builders,omitempty"`
	Gates    []EventMult   `yaml:"gates,omitempty"`

	// survival
	Base          float64       `yaml:"base,omitempty"`
	Cap           float64       `yaml:"cap,omitempty"`
	SurvivalEvent string        `yaml:"survival-event,omitempty"`
	Bonuses       []EventWeight `yaml:"bonuses,omitempty"`
	Fallback      *EventWeight  `yaml:"fallback,omitempty"`

	// bank-blend
	Banks []BankSpec `yaml:"banks,omitempty"`
}

// PlayerSpec is one player: display names and the payoff model.
type PlayerSpec struct {
	Name       string    `yaml:"name"`
	Strategies []string  `yaml:"strategies"`
	Model      ModelSpec `yaml:"model"`
}

// Spec is a full scenario file.
type Spec struct {
	Name    string       `yaml:"name"`
	Players []PlayerSpec `yaml:"players"`
}

// ParseSpec unmarshals and validates scenario yaml.
func ParseSpec(data []byte) (*Spec, error) {
	spec := &Spec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// LoadSpec reads a scenario yaml file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSpec(data)
}

func (s *Spec) validate() error {
	if len(s.Players) != 3 {
		return fmt.Errorf("scenario must define exactly 3 players, got %d", len(s.Players))
	}
	for i, p := range s.Players {
		if len(p.Strategies) < 1 {
			return fmt.Errorf("player %d (%s) has no strategies", i, p.Name)
		}
		names := p.EventNames()
		if len(names) == 0 {
			return fmt.Errorf("player %d (%s) model has no events", i, p.Name)
		}
		seen := map[string]bool{}
		for _, n := range names {
			if n == "" {
				return fmt.Errorf("player %d (%s) has an unnamed event", i, p.Name)
			}
			if seen[n] {
				return fmt.Errorf("player %d (%s) repeats event %q", i, p.Name, n)
			}
			seen[n] = true
		}
		switch p.Model.Type {
		case ModelStagedBank, ModelBankBlend:
		case ModelSurvival:
			if p.Model.Fallback == nil {
				return fmt.Errorf("player %d (%s): survival model requires a fallback", i, p.Name)
			}
		default:
			return fmt.Errorf("player %d (%s) has unknown model type %q", i, p.Name, p.Model.Type)
		}
	}
	return nil
}

// EventNames lists the player's events in their canonical order, which
// is also the order of the player's probability columns in a CSV.
func (p PlayerSpec) EventNames() []string {
	var names []string
	m := p.Model
	switch m.Type {
	case ModelStagedBank:
		for _, b := range m.Builders {
			names = append(names, b.Event)
		}
		for _, g := range m.Gates {
			names = append(names, g.Event)
		}
	case ModelSurvival:
		names = append(names, m.SurvivalEvent)
		for _, b := range m.Bonuses {
			names = append(names, b.Event)
		}
		if m.Fallback != nil {
			names = append(names, m.Fallback.Event)
		}
	case ModelBankBlend:
		for _, bank := range m.Banks {
			for _, g := range bank.Goals {
				names = append(names, g.Event)
			}
		}
	}
	return names
}

// BuildModel binds the player's formula to one profile's probabilities.
func (p PlayerSpec) BuildModel(probs map[string]float64) (payoff.Model, error) {
	for _, name := range p.EventNames() {
		if _, ok := probs[name]; !ok {
			return nil, fmt.Errorf("player %s: missing probability for event %q", p.Name, name)
		}
	}
	m := p.Model
	switch m.Type {
	case ModelStagedBank:
		cfg := payoff.StagedBankConfig{}
		var builderProbs, gateProbs []float64
		for _, b := range m.Builders {
			cfg.Builders = append(cfg.Builders, payoff.Builder{Name: b.Event, Weight: b.Weight})
			builderProbs = append(builderProbs, probs[b.Event])
		}
		for _, g := range m.Gates {
			cfg.Gates = append(cfg.Gates, payoff.Gate{Name: g.Event, Multiplier: g.Multiplier})
			gateProbs = append(gateProbs, probs[g.Event])
		}
		return payoff.NewStagedBank(cfg, builderProbs, gateProbs)
	case ModelSurvival:
		capValue := m.Cap
		if capValue == 0 {
			capValue = 100.0
		}
		cfg := payoff.SurvivalConfig{
			Base:     m.Base,
			Fallback: payoff.Bonus{Name: m.Fallback.Event, Weight: m.Fallback.Weight},
			Cap:      capValue,
		}
		var bonusProbs []float64
		for _, b := range m.Bonuses {
			cfg.Bonuses = append(cfg.Bonuses, payoff.Bonus{Name: b.Event, Weight: b.Weight})
			bonusProbs = append(bonusProbs, probs[b.Event])
		}
		return payoff.NewSurvival(cfg, probs[m.SurvivalEvent], bonusProbs, probs[m.Fallback.Event])
	case ModelBankBlend:
		cfg := payoff.BankBlendConfig{}
		var goalProbs [][]float64
		for _, bank := range m.Banks {
			b := payoff.Bank{Weight: bank.Weight, Scale: bank.Scale}
			var ps []float64
			for _, g := range bank.Goals {
				b.Goals = append(b.Goals, payoff.Goal{Name: g.Event, Weight: g.Weight})
				ps = append(ps, probs[g.Event])
			}
			cfg.Banks = append(cfg.Banks, b)
			goalProbs = append(goalProbs, ps)
		}
		return payoff.NewBankBlend(cfg, goalProbs)
	}
	return nil, fmt.Errorf("unknown model type %q", m.Type)
}
