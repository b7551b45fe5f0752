package practice

import (
	"slices"
	"time"

	"github.com/ahabook/linguaflow/internal/scoring"
)

// Summary holds the data displayed when a scene ends.
type Summary struct {
	SessionID  string
	Scene      SceneInfo
	Turns      int
	TurnScores []int
	FinalScore int
	Grade      string
	Label      string
	Passed     bool
	Duration   time.Duration
}

// BuildSummary creates a Summary from the session state.
func BuildSummary(p scoring.Policy, s State, now time.Time) *Summary {
	sum := &Summary{
		SessionID:  s.SessionID,
		Turns:      s.CurrentTurn,
		TurnScores: slices.Clone(s.TurnScores),
		FinalScore: s.TotalScore,
		Grade:      scoring.Grade(s.TotalScore),
		Label:      scoring.Label(s.TotalScore),
		Passed:     s.HasPassed(p),
	}
	if s.Scene != nil {
		sum.Scene = *s.Scene
	}
	if !s.StartedAt.IsZero() {
		sum.Duration = now.Sub(s.StartedAt)
	}
	return sum
}
