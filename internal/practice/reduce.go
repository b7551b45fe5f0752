package practice

import (
	"slices"
	"strings"
	"time"

	"github.com/ahabook/linguaflow/internal/scoring"
)

// Reduce applies an event to a state and returns the next state. It has no
// side effects. When the event is not valid in the current state, the
// original state is returned together with an error wrapping ErrRejected.
func Reduce(p scoring.Policy, s State, e Event) (State, error) {
	switch e := e.(type) {
	case SceneRequested:
		if s.Phase() != PhaseIdle {
			return s, wrongPhase(s.Phase(), e.eventName())
		}
		next := s.Clone()
		next.GeneratingScene = true
		return next, nil

	case SceneReady:
		if s.Phase() != PhaseSceneGenerating {
			return s, wrongPhase(s.Phase(), e.eventName())
		}
		return start(s, e.SessionID, e.Scene, e.At)

	case SceneFailed:
		if s.Phase() != PhaseSceneGenerating {
			return s, wrongPhase(s.Phase(), e.eventName())
		}
		next := s.Clone()
		next.GeneratingScene = false
		return next, nil

	case Begin:
		if ph := s.Phase(); ph != PhaseIdle && ph != PhaseSceneGenerating {
			return s, wrongPhase(ph, e.eventName())
		}
		return start(s, e.SessionID, e.Scene, e.At)

	case InputChanged:
		if ph := s.Phase(); ph == PhaseIdle || ph == PhaseFinished {
			return s, wrongPhase(ph, e.eventName())
		}
		next := s.Clone()
		next.Input = e.Text
		return next, nil

	case CredentialsSet:
		next := s.Clone()
		next.APIKey = e.APIKey
		return next, nil

	case TurnSubmitted:
		if err := checkSubmit(p, s, e.Text); err != nil {
			return s, err
		}
		next := s.Clone()
		next.Messages = append(next.Messages, Message{
			ID:        e.ID,
			Role:      RoleUser,
			Content:   strings.TrimSpace(e.Text),
			Timestamp: e.At,
		})
		next.Input = ""
		next.Sending = true
		return next, nil

	case TurnScored:
		if s.Phase() != PhaseSending {
			return s, wrongPhase(s.Phase(), e.eventName())
		}
		if strings.TrimSpace(e.Assessment.Reply) == "" {
			return s, ErrEmptyResponse
		}
		return commitTurn(p, s, e), nil

	case ScoringFailed:
		if s.Phase() != PhaseSending {
			return s, wrongPhase(s.Phase(), e.eventName())
		}
		next := s.Clone()
		if n := len(next.Messages); n > 0 && next.Messages[n-1].Role == RoleUser {
			next.Input = next.Messages[n-1].Content
			next.Messages = next.Messages[:n-1]
		}
		next.Sending = false
		return next, nil

	case TypewriterCompleted:
		if s.Phase() != PhaseAssistantTyping {
			return s, wrongPhase(s.Phase(), e.eventName())
		}
		next := s.Clone()
		next.Typing = false
		if next.CurrentTurn >= p.MaxTurns {
			next.Finished = true
		}
		return next, nil

	case AttachScore:
		i := slices.IndexFunc(s.Messages, func(m Message) bool {
			return m.ID == e.MessageID && m.Role == RoleAssistant
		})
		if i < 0 {
			return s, ErrUnknownMsg
		}
		next := s.Clone()
		if e.Scores != nil {
			scores := e.Scores.Clamp()
			next.Messages[i].Scores = &scores
		}
		if e.Feedback != "" {
			next.Messages[i].Feedback = e.Feedback
		}
		return next, nil

	case Reset:
		return State{APIKey: s.APIKey}, nil
	}

	return s, ErrUnknownEvent
}

func checkSubmit(p scoring.Policy, s State, text string) error {
	switch {
	case s.Finished:
		return ErrFinished
	case s.CurrentTurn >= p.MaxTurns:
		return ErrMaxTurns
	case s.Phase() != PhaseAwaitingInput:
		return wrongPhase(s.Phase(), TurnSubmitted{}.eventName())
	case strings.TrimSpace(text) == "":
		return ErrEmptyInput
	}
	return nil
}

// start clears all counters and messages and records the scene. A scene
// opening becomes the first, unscored assistant message.
func start(s State, sessionID string, scene SceneInfo, at time.Time) (State, error) {
	if strings.TrimSpace(scene.Title) == "" || !scene.Difficulty.Valid() {
		return s, ErrInvalidScene
	}
	next := State{
		SessionID: sessionID,
		Scene:     &scene,
		APIKey:    s.APIKey,
		StartedAt: at,
	}
	if opening := strings.TrimSpace(scene.Opening); opening != "" {
		next.Messages = []Message{{
			ID:        sessionID + "-opening",
			Role:      RoleAssistant,
			Content:   opening,
			Timestamp: at,
		}}
	}
	return next, nil
}

func commitTurn(p scoring.Policy, s State, e TurnScored) State {
	scores := e.Assessment.Scores.Clamp()
	turnScore := p.FinalTurnScore(scores, e.Assessment.NonTargetLanguage)
	oldMean := s.TotalScore
	newMean := scoring.RunningMean(oldMean, s.CurrentTurn, turnScore)
	delta := scoring.ScoreDelta(newMean, oldMean)

	next := s.Clone()
	next.Messages = append(next.Messages, Message{
		ID:        e.ID,
		Role:      RoleAssistant,
		Content:   strings.TrimSpace(e.Assessment.Reply),
		Timestamp: e.At,
		Scores:    &scores,
		Feedback:  e.Assessment.Feedback,
	})
	next.TurnScores = append(next.TurnScores, turnScore)
	next.TotalScore = newMean
	next.ScoreChange = &delta
	next.CurrentTurn++
	next.Sending = false
	next.Typing = true
	return next
}
