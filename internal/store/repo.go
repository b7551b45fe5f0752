package store

import (
	"context"
	"time"
)

// now is replaced in tests that need deterministic timestamps.
var now = func() time.Time { return time.Now().UTC() }

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // LLM events only; empty matches all
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM token usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// PracticeAction identifies a practice lifecycle event.
type PracticeAction string

const (
	PracticeStart   PracticeAction = "start"
	PracticeEnd     PracticeAction = "end"
	PracticeAbandon PracticeAction = "abandon"
)

// PracticeEventData captures one practice session lifecycle event.
// Turns, FinalScore, Passed and DurationSecs are only meaningful for
// end and abandon.
type PracticeEventData struct {
	SessionID    string
	Action       PracticeAction
	SceneTitle   string
	Difficulty   string
	Turns        int
	FinalScore   int
	Passed       bool
	DurationSecs int
}

// TurnEventData captures one committed, scored turn.
type TurnEventData struct {
	SessionID         string
	Turn              int
	Utterance         string
	Reply             string
	Feedback          string
	Communication     int
	Accuracy          int
	Scenario          int
	Fluency           int
	NonTargetLanguage bool
	TurnScore         int
	RunningMean       int
}

// TurnRecord is a stored turn event.
type TurnRecord struct {
	Sequence  int64
	Timestamp time.Time
	TurnEventData
}

// SessionStatus is the outcome of a recorded practice session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in-progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

// PracticeSummary describes one practice session reconstructed from its
// lifecycle events.
type PracticeSummary struct {
	SessionID    string
	SceneTitle   string
	Difficulty   string
	StartedAt    time.Time
	Status       SessionStatus
	Turns        int
	FinalScore   int
	Passed       bool
	DurationSecs int
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendPracticeEvent records a practice start, end or abandon.
	AppendPracticeEvent(ctx context.Context, data PracticeEventData) error

	// AppendTurnEvent records one committed turn.
	AppendTurnEvent(ctx context.Context, data TurnEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns a single LLM event by ID, or nil if not found.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates LLM usage grouped by purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates LLM usage grouped by model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// QueryPracticeSummaries returns recorded sessions, newest first.
	QueryPracticeSummaries(ctx context.Context, opts QueryOpts) ([]PracticeSummary, error)

	// QueryTurns returns the turns of a session in order.
	QueryTurns(ctx context.Context, sessionID string) ([]TurnRecord, error)

	// BestScore returns the highest final score of a completed session at
	// the given difficulty. ok is false when none exist.
	BestScore(ctx context.Context, difficulty string) (score int, ok bool, err error)
}
