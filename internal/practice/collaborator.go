package practice

import (
	"context"

	"github.com/ahabook/linguaflow/internal/scoring"
)

// Assessment is the coach's verdict on one user utterance.
type Assessment struct {
	Scores            scoring.Dimensions
	Feedback          string
	Reply             string
	NonTargetLanguage bool
}

// TurnRequest is what the scorer receives for one turn.
type TurnRequest struct {
	Scene SceneInfo

	// History is the conversation before Utterance, oldest first.
	History []Message

	// Utterance is the user's latest message.
	Utterance string
}

// Scorer assesses a user utterance and continues the role-play.
// Implementations are stateless and consulted once per turn.
type Scorer interface {
	Score(ctx context.Context, req TurnRequest) (*Assessment, error)
}

// SceneGenerator produces a scene for a difficulty tier.
type SceneGenerator interface {
	Generate(ctx context.Context, difficulty Difficulty) (*SceneInfo, error)
}
