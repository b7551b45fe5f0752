package practice

import (
	"time"

	"github.com/ahabook/linguaflow/internal/scoring"
)

// Event is a state transition input. The set of events is closed.
type Event interface {
	eventName() string
}

// SceneRequested marks the start of scene generation.
type SceneRequested struct{}

// SceneReady delivers a generated scene.
type SceneReady struct {
	SessionID string
	Scene     SceneInfo
	At        time.Time
}

// SceneFailed reports that scene generation failed.
type SceneFailed struct {
	Err error
}

// Begin starts a session on a known scene without generation.
type Begin struct {
	SessionID string
	Scene     SceneInfo
	At        time.Time
}

// InputChanged replaces the input buffer.
type InputChanged struct {
	Text string
}

// CredentialsSet stores a user-supplied provider key on the session.
type CredentialsSet struct {
	APIKey string
}

// TurnSubmitted appends the user's utterance and starts scoring.
type TurnSubmitted struct {
	ID   string
	Text string
	At   time.Time
}

// TurnScored commits the assessment of the in-flight turn.
type TurnScored struct {
	ID         string
	Assessment Assessment
	At         time.Time
}

// ScoringFailed withdraws the in-flight turn.
type ScoringFailed struct {
	Err error
}

// TypewriterCompleted reports that the assistant reply is fully shown.
type TypewriterCompleted struct{}

// AttachScore adds late-arriving scores or feedback to an assistant message.
type AttachScore struct {
	MessageID string
	Scores    *scoring.Dimensions
	Feedback  string
}

// Reset returns the session to idle.
type Reset struct{}

func (SceneRequested) eventName() string      { return "scene-requested" }
func (SceneReady) eventName() string          { return "scene-ready" }
func (SceneFailed) eventName() string         { return "scene-failed" }
func (Begin) eventName() string               { return "begin" }
func (InputChanged) eventName() string        { return "input-changed" }
func (CredentialsSet) eventName() string      { return "credentials-set" }
func (TurnSubmitted) eventName() string       { return "turn-submitted" }
func (TurnScored) eventName() string          { return "turn-scored" }
func (ScoringFailed) eventName() string       { return "scoring-failed" }
func (TypewriterCompleted) eventName() string { return "typewriter-completed" }
func (AttachScore) eventName() string         { return "attach-score" }
func (Reset) eventName() string               { return "reset" }
