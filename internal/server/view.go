package server

import (
	"time"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/scoring"
)

type messageView struct {
	ID        string              `json:"id"`
	Role      practice.Role       `json:"role"`
	Content   string              `json:"content"`
	Timestamp time.Time           `json:"timestamp"`
	Scores    *scoring.Dimensions `json:"scores,omitempty"`
	Feedback  string              `json:"feedback,omitempty"`
}

type summaryView struct {
	FinalScore  int     `json:"final_score"`
	Grade       string  `json:"grade"`
	Label       string  `json:"label"`
	Passed      bool    `json:"passed"`
	Turns       int     `json:"turns"`
	TurnScores  []int   `json:"turn_scores"`
	DurationSec float64 `json:"duration_sec"`
}

type sessionView struct {
	ID          string              `json:"id"`
	SessionID   string              `json:"session_id,omitempty"`
	Phase       string              `json:"phase"`
	Scene       *practice.SceneInfo `json:"scene,omitempty"`
	Messages    []messageView       `json:"messages"`
	Input       string              `json:"input"`
	CurrentTurn int                 `json:"current_turn"`
	MaxTurns    int                 `json:"max_turns"`
	TotalScore  int                 `json:"total_score"`
	ScoreChange *int                `json:"score_change,omitempty"`
	TurnScores  []int               `json:"turn_scores"`
	Passed      bool                `json:"passed"`
	Summary     *summaryView        `json:"summary,omitempty"`
}

type turnView struct {
	Turn       int         `json:"turn"`
	Reply      messageView `json:"reply"`
	TurnScore  int         `json:"turn_score"`
	TotalScore int         `json:"total_score"`
	Delta      string      `json:"delta"`
	Final      bool        `json:"final"`
}

func newSessionView(id string, p scoring.Policy, s practice.State, sum *practice.Summary) sessionView {
	v := sessionView{
		ID:          id,
		SessionID:   s.SessionID,
		Phase:       s.Phase().String(),
		Scene:       s.Scene,
		Messages:    make([]messageView, 0, len(s.Messages)),
		Input:       s.Input,
		CurrentTurn: s.CurrentTurn,
		MaxTurns:    p.MaxTurns,
		TotalScore:  s.TotalScore,
		ScoreChange: s.ScoreChange,
		TurnScores:  s.TurnScores,
		Passed:      s.HasPassed(p),
	}
	if v.TurnScores == nil {
		v.TurnScores = []int{}
	}
	for _, m := range s.Messages {
		v.Messages = append(v.Messages, newMessageView(m))
	}
	if sum != nil {
		v.Summary = newSummaryView(sum)
	}
	return v
}

func newMessageView(m practice.Message) messageView {
	return messageView{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Scores:    m.Scores,
		Feedback:  m.Feedback,
	}
}

func newSummaryView(sum *practice.Summary) *summaryView {
	return &summaryView{
		FinalScore:  sum.FinalScore,
		Grade:       sum.Grade,
		Label:       sum.Label,
		Passed:      sum.Passed,
		Turns:       sum.Turns,
		TurnScores:  sum.TurnScores,
		DurationSec: sum.Duration.Seconds(),
	}
}

func newTurnView(out *practice.TurnOutcome) turnView {
	return turnView{
		Turn:       out.Turn,
		Reply:      newMessageView(out.Reply),
		TurnScore:  out.TurnScore,
		TotalScore: out.TotalScore,
		Delta:      scoring.FormatDelta(out.Delta),
		Final:      out.Final,
	}
}
