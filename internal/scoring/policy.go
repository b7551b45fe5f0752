package scoring

import (
	"fmt"
	"math"
)

const (
	// DefaultNonTargetPenalty is subtracted from a turn score when the
	// learner answered in a language other than English.
	DefaultNonTargetPenalty = 15

	// DefaultPassScore is the minimum final mean that passes a scene.
	DefaultPassScore = 80

	// DefaultMaxTurns is the number of turns in a scene. Scenes are fixed
	// length, so MinTurns equals MaxTurns.
	DefaultMaxTurns = 5
	DefaultMinTurns = 5

	// MinScore and MaxScore bound every dimension and every derived score.
	MinScore = 0
	MaxScore = 100
)

// Weights holds the relative weight of each dimension. They must sum to 1.0.
type Weights struct {
	Communication float64 `yaml:"communication" json:"communication"`
	Accuracy      float64 `yaml:"accuracy" json:"accuracy"`
	Scenario      float64 `yaml:"scenario" json:"scenario"`
	Fluency       float64 `yaml:"fluency" json:"fluency"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Communication + w.Accuracy + w.Scenario + w.Fluency
}

// Policy parameterizes turn scoring and scene termination.
type Policy struct {
	Weights          Weights `yaml:"weights" json:"weights"`
	NonTargetPenalty int     `yaml:"non_target_penalty" json:"non_target_penalty"`
	PassScore        int     `yaml:"pass_score" json:"pass_score"`
	MaxTurns         int     `yaml:"max_turns" json:"max_turns"`

	// MinTurns always equals MaxTurns: a scene never ends early. It is
	// derived from MaxTurns when configuration is loaded.
	MinTurns int `yaml:"-" json:"min_turns"`
}

// DefaultPolicy returns the standard scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			Communication: 0.30,
			Accuracy:      0.25,
			Scenario:      0.25,
			Fluency:       0.20,
		},
		NonTargetPenalty: DefaultNonTargetPenalty,
		PassScore:        DefaultPassScore,
		MaxTurns:         DefaultMaxTurns,
		MinTurns:         DefaultMinTurns,
	}
}

// Validate checks that the policy is internally consistent.
func (p Policy) Validate() error {
	if math.Abs(p.Weights.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("dimension weights must sum to 1.0, got %.4f", p.Weights.Sum())
	}
	for name, w := range map[string]float64{
		"communication": p.Weights.Communication,
		"accuracy":      p.Weights.Accuracy,
		"scenario":      p.Weights.Scenario,
		"fluency":       p.Weights.Fluency,
	} {
		if w < 0 {
			return fmt.Errorf("weight %q must not be negative", name)
		}
	}
	if p.NonTargetPenalty < 0 || p.NonTargetPenalty > MaxScore {
		return fmt.Errorf("non-target penalty %d out of range [0,%d]", p.NonTargetPenalty, MaxScore)
	}
	if !ValidScore(p.PassScore) {
		return fmt.Errorf("pass score %d out of range [0,%d]", p.PassScore, MaxScore)
	}
	if p.MaxTurns <= 0 {
		return fmt.Errorf("max turns must be positive, got %d", p.MaxTurns)
	}
	if p.MinTurns != p.MaxTurns {
		return fmt.Errorf("min turns %d must equal max turns %d", p.MinTurns, p.MaxTurns)
	}
	return nil
}
