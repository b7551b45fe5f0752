package scoring

import (
	"fmt"
	"math"
)

// Dimensions holds the four per-turn sub-scores, each in [0,100].
type Dimensions struct {
	Communication int `json:"communication"`
	Accuracy      int `json:"accuracy"`
	Scenario      int `json:"scenario"`
	Fluency       int `json:"fluency"`
}

// ValidScore reports whether s lies in [0,100].
func ValidScore(s int) bool {
	return s >= MinScore && s <= MaxScore
}

// Valid reports whether every dimension is a valid score.
func (d Dimensions) Valid() bool {
	return ValidScore(d.Communication) &&
		ValidScore(d.Accuracy) &&
		ValidScore(d.Scenario) &&
		ValidScore(d.Fluency)
}

// Clamp returns a copy with each dimension clamped to [0,100].
func (d Dimensions) Clamp() Dimensions {
	return Dimensions{
		Communication: clamp(d.Communication),
		Accuracy:      clamp(d.Accuracy),
		Scenario:      clamp(d.Scenario),
		Fluency:       clamp(d.Fluency),
	}
}

// WeightedScore combines the clamped dimensions into a single score.
func (p Policy) WeightedScore(d Dimensions) int {
	d = d.Clamp()
	w := p.Weights
	raw := float64(d.Communication)*w.Communication +
		float64(d.Accuracy)*w.Accuracy +
		float64(d.Scenario)*w.Scenario +
		float64(d.Fluency)*w.Fluency
	return clamp(int(math.Round(raw)))
}

// FinalTurnScore applies the flat non-target-language penalty to the
// weighted score. The result is floored at 0 and capped at 100.
func (p Policy) FinalTurnScore(d Dimensions, nonTarget bool) int {
	s := p.WeightedScore(d)
	if nonTarget {
		s -= p.NonTargetPenalty
	}
	return clamp(s)
}

// Passed reports whether a final mean meets the pass score.
func (p Policy) Passed(mean int) bool {
	return mean >= p.PassScore
}

// RunningMean folds newTurnScore into a mean over turnsSoFar turns.
// turnsSoFar is the number of turns already included in oldMean.
func RunningMean(oldMean, turnsSoFar, newTurnScore int) int {
	if turnsSoFar < 0 {
		turnsSoFar = 0
	}
	total := float64(oldMean)*float64(turnsSoFar) + float64(newTurnScore)
	return int(math.Round(total / float64(turnsSoFar+1)))
}

// ScoreDelta is the signed change between two means.
func ScoreDelta(newMean, oldMean int) int {
	return newMean - oldMean
}

// FormatDelta renders a delta for display, e.g. "+6", "-3" or "±0".
func FormatDelta(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return fmt.Sprintf("%d", delta)
	default:
		return "±0"
	}
}

// WeightedScore uses the default policy.
func WeightedScore(d Dimensions) int {
	return DefaultPolicy().WeightedScore(d)
}

// FinalTurnScore uses the default policy.
func FinalTurnScore(d Dimensions, nonTarget bool) int {
	return DefaultPolicy().FinalTurnScore(d, nonTarget)
}

// Passed uses the default policy.
func Passed(mean int) bool {
	return DefaultPolicy().Passed(mean)
}

func clamp(v int) int {
	return max(MinScore, min(MaxScore, v))
}
