package practice

import (
	"fmt"
	"slices"
	"time"

	"github.com/ahabook/linguaflow/internal/scoring"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single utterance in a scene conversation. Messages are
// immutable once appended, except that scores and feedback may be
// attached to an assistant message after the fact.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time

	// Scores is set on assistant messages that carry a turn assessment.
	Scores *scoring.Dimensions

	// Feedback is the coach's note on the user's preceding utterance.
	Feedback string
}

// Difficulty is the ordered difficulty tier of a scene.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// AllDifficulties returns the tiers from easiest to hardest.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
}

// Rank returns the position of d in the tier ordering, or -1 if unknown.
func (d Difficulty) Rank() int {
	return slices.Index(AllDifficulties(), d)
}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	return d.Rank() >= 0
}

// DisplayName returns a human-readable label.
func (d Difficulty) DisplayName() string {
	switch d {
	case DifficultyBeginner:
		return "Beginner"
	case DifficultyIntermediate:
		return "Intermediate"
	case DifficultyAdvanced:
		return "Advanced"
	default:
		return string(d)
	}
}

// ParseDifficulty parses a tier name.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q (want beginner, intermediate or advanced)", s)
	}
	return d, nil
}

// SceneInfo describes a role-play scenario. It is fixed for the lifetime
// of a session.
type SceneInfo struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Context     string     `json:"context"`
	Goal        string     `json:"goal"`
	Difficulty  Difficulty `json:"difficulty"`

	// Opening is the assistant's first line. Optional.
	Opening string `json:"opening,omitempty"`
}

// Phase is the derived position of a session in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSceneGenerating
	PhaseAwaitingInput
	PhaseSending
	PhaseAssistantTyping
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSceneGenerating:
		return "scene-generating"
	case PhaseAwaitingInput:
		return "awaiting-input"
	case PhaseSending:
		return "sending"
	case PhaseAssistantTyping:
		return "assistant-typing"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the aggregate of a scene practice session. It is only changed
// through Reduce.
type State struct {
	// SessionID identifies the session once a scene is ready.
	SessionID string

	// Scene is nil until a scene has been generated or supplied.
	Scene *SceneInfo

	// Messages is the conversation in order. Append-only.
	Messages []Message

	// Input is the free-text buffer the user is composing.
	Input string

	// CurrentTurn counts accepted turns, 0..MaxTurns.
	CurrentTurn int

	// TotalScore is the running mean of TurnScores.
	TotalScore int

	// ScoreChange is the delta of the most recent turn, nil before the first.
	ScoreChange *int

	// TurnScores holds the final score of each accepted turn.
	TurnScores []int

	GeneratingScene bool
	Sending         bool
	Typing          bool
	Finished        bool

	// APIKey optionally carries a user-supplied provider credential.
	APIKey string

	// StartedAt is when the scene became ready.
	StartedAt time.Time
}

// Phase derives the lifecycle phase from the UI flags.
func (s State) Phase() Phase {
	switch {
	case s.Finished:
		return PhaseFinished
	case s.GeneratingScene:
		return PhaseSceneGenerating
	case s.Sending:
		return PhaseSending
	case s.Typing:
		return PhaseAssistantTyping
	case s.Scene != nil:
		return PhaseAwaitingInput
	default:
		return PhaseIdle
	}
}

// IsGameOver reports whether no further turns can be played.
func (s State) IsGameOver(p scoring.Policy) bool {
	return s.CurrentTurn >= p.MaxTurns || s.Finished
}

// HasPassed reports whether the running mean meets the pass score. It is
// independent of IsGameOver.
func (s State) HasPassed(p scoring.Policy) bool {
	return p.Passed(s.TotalScore)
}

// CanSubmit reports whether a turn with the given text would be accepted.
func (s State) CanSubmit(p scoring.Policy, text string) bool {
	return checkSubmit(p, s, text) == nil
}

// TurnsRemaining returns how many turns are left in the scene.
func (s State) TurnsRemaining(p scoring.Policy) int {
	return max(0, p.MaxTurns-s.CurrentTurn)
}

// LastAssistant returns the most recent assistant message, if any.
func (s State) LastAssistant() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Clone returns a copy that shares no mutable memory with s.
func (s State) Clone() State {
	c := s
	if s.Scene != nil {
		scene := *s.Scene
		c.Scene = &scene
	}
	if s.ScoreChange != nil {
		delta := *s.ScoreChange
		c.ScoreChange = &delta
	}
	c.TurnScores = slices.Clone(s.TurnScores)
	c.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		if m.Scores != nil {
			scores := *m.Scores
			m.Scores = &scores
		}
		c.Messages[i] = m
	}
	if s.Messages == nil {
		c.Messages = nil
	}
	return c
}
