package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahabook/linguaflow/internal/scoring"
	"github.com/ahabook/linguaflow/internal/store"
)

// Options configures a Runner.
type Options struct {
	Policy    scoring.Policy
	Scorer    Scorer
	Generator SceneGenerator

	// Repo records lifecycle and turn events. Optional.
	Repo store.EventRepo

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// TurnOutcome describes a committed turn.
type TurnOutcome struct {
	Turn       int
	Reply      Message
	TurnScore  int
	TotalScore int
	Delta      int
	Passed     bool

	// Final is true when this was the last turn of the scene. The session
	// finishes once the reply has been shown.
	Final bool
}

// Runner drives one practice session. It owns the state, calls the
// collaborators outside the lock, and feeds their results back through
// Reduce. Turns are strictly sequential.
type Runner struct {
	mu        sync.Mutex
	state     State
	policy    scoring.Policy
	scorer    Scorer
	generator SceneGenerator
	repo      store.EventRepo
	logger    *slog.Logger
	clock     func() time.Time

	// epoch changes whenever the session is abandoned so that late
	// collaborator results can be recognised and dropped.
	epoch      uint64
	cancel     context.CancelFunc
	difficulty Difficulty
}

// NewRunner creates a Runner in the idle phase.
func NewRunner(opts Options) (*Runner, error) {
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	if opts.Scorer == nil {
		return nil, errors.New("runner requires a scorer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Runner{
		policy:    opts.Policy,
		scorer:    opts.Scorer,
		generator: opts.Generator,
		repo:      opts.Repo,
		logger:    logger,
		clock:     clock,
	}, nil
}

// Policy returns the scoring policy in use.
func (r *Runner) Policy() scoring.Policy {
	return r.policy
}

// Snapshot returns a copy of the current state.
func (r *Runner) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Begin generates a scene for difficulty and starts a session on it.
func (r *Runner) Begin(ctx context.Context, difficulty Difficulty) (*SceneInfo, error) {
	if !difficulty.Valid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrRejected, difficulty)
	}
	if r.generator == nil {
		return nil, errors.New("runner has no scene generator")
	}

	r.mu.Lock()
	next, err := Reduce(r.policy, r.state, SceneRequested{})
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.state = next
	r.difficulty = difficulty
	ctx, epoch := r.track(ctx)
	r.mu.Unlock()

	scene, genErr := r.generator.Generate(ctx, difficulty)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		return nil, ErrAbandoned
	}
	r.untrack()

	if genErr == nil && scene == nil {
		genErr = errors.New("generator returned no scene")
	}
	if genErr != nil {
		r.state, _ = Reduce(r.policy, r.state, SceneFailed{Err: genErr})
		r.logger.Warn("scene generation failed", "difficulty", difficulty, "error", genErr)
		return nil, fmt.Errorf("generate scene: %w", genErr)
	}

	next, err = Reduce(r.policy, r.state, SceneReady{
		SessionID: uuid.NewString(),
		Scene:     *scene,
		At:        r.clock(),
	})
	if err != nil {
		r.state, _ = Reduce(r.policy, r.state, SceneFailed{Err: err})
		return nil, err
	}
	r.state = next
	r.recordStart(ctx)
	out := *r.state.Scene
	return &out, nil
}

// BeginWith starts a session on a known scene without generation.
func (r *Runner) BeginWith(ctx context.Context, scene SceneInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := Reduce(r.policy, r.state, Begin{
		SessionID: uuid.NewString(),
		Scene:     scene,
		At:        r.clock(),
	})
	if err != nil {
		return err
	}
	r.state = next
	r.difficulty = scene.Difficulty
	r.recordStart(ctx)
	return nil
}

// SetInput replaces the input buffer.
func (r *Runner) SetInput(text string) error {
	return r.apply(InputChanged{Text: text})
}

// SetAPIKey stores a user-supplied provider credential on the session.
func (r *Runner) SetAPIKey(key string) error {
	return r.apply(CredentialsSet{APIKey: key})
}

// Attach adds late scores or feedback to an assistant message.
func (r *Runner) Attach(messageID string, scores *scoring.Dimensions, feedback string) error {
	return r.apply(AttachScore{MessageID: messageID, Scores: scores, Feedback: feedback})
}

func (r *Runner) apply(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := Reduce(r.policy, r.state, e)
	if err != nil {
		return err
	}
	r.state = next
	return nil
}

// Submit sends text as the next turn and waits for the scorer. Invalid
// submissions are rejected before the scorer is consulted. When scoring
// fails the user message is withdrawn and text is put back in the input
// buffer so the user can resend it.
func (r *Runner) Submit(ctx context.Context, text string) (*TurnOutcome, error) {
	r.mu.Lock()
	next, err := Reduce(r.policy, r.state, TurnSubmitted{
		ID:   uuid.NewString(),
		Text: text,
		At:   r.clock(),
	})
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.state = next
	n := len(next.Messages)
	req := TurnRequest{
		Scene:     *next.Scene,
		History:   next.Clone().Messages[:n-1],
		Utterance: next.Messages[n-1].Content,
	}
	ctx, epoch := r.track(ctx)
	r.mu.Unlock()

	assessment, scoreErr := r.scorer.Score(ctx, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		return nil, ErrAbandoned
	}
	r.untrack()

	if scoreErr == nil && assessment == nil {
		scoreErr = errors.New("scorer returned no assessment")
	}
	if scoreErr == nil {
		next, err = Reduce(r.policy, r.state, TurnScored{
			ID:         uuid.NewString(),
			Assessment: *assessment,
			At:         r.clock(),
		})
		if err != nil {
			scoreErr = err
		}
	}
	if scoreErr != nil {
		r.state, _ = Reduce(r.policy, r.state, ScoringFailed{Err: scoreErr})
		r.logger.Warn("turn scoring failed",
			"session", r.state.SessionID,
			"turn", r.state.CurrentTurn+1,
			"error", scoreErr,
		)
		return nil, fmt.Errorf("score turn: %w", scoreErr)
	}
	r.state = next

	reply := next.Messages[len(next.Messages)-1]
	turnScore := next.TurnScores[len(next.TurnScores)-1]
	r.recordTurn(ctx, req.Utterance, reply, assessment.NonTargetLanguage, turnScore)

	return &TurnOutcome{
		Turn:       next.CurrentTurn,
		Reply:      reply,
		TurnScore:  turnScore,
		TotalScore: next.TotalScore,
		Delta:      *next.ScoreChange,
		Passed:     next.HasPassed(r.policy),
		Final:      next.CurrentTurn >= r.policy.MaxTurns,
	}, nil
}

// TypewriterDone reports that the latest reply has been fully shown. When
// that ends the scene the summary is returned.
func (r *Runner) TypewriterDone(ctx context.Context) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := Reduce(r.policy, r.state, TypewriterCompleted{})
	if err != nil {
		return nil, err
	}
	r.state = next
	if !next.Finished {
		return nil, nil
	}
	sum := BuildSummary(r.policy, next, r.clock())
	r.recordEnd(ctx, store.PracticeEnd, sum)
	return sum, nil
}

// Summary returns the summary of a finished session, or nil.
func (r *Runner) Summary() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Finished {
		return nil
	}
	return BuildSummary(r.policy, r.state, r.clock())
}

// Abandon cancels any in-flight collaborator call and returns the session
// to idle. An unfinished session is recorded as abandoned.
func (r *Runner) Abandon(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abandon(ctx)
}

// Restart abandons the current session and begins a new one at the same
// difficulty.
func (r *Runner) Restart(ctx context.Context) (*SceneInfo, error) {
	r.mu.Lock()
	difficulty := r.difficulty
	r.abandon(ctx)
	r.mu.Unlock()
	if difficulty == "" {
		difficulty = DifficultyBeginner
	}
	return r.Begin(ctx, difficulty)
}

func (r *Runner) abandon(ctx context.Context) {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.epoch++
	if r.state.SessionID != "" && !r.state.Finished {
		sum := BuildSummary(r.policy, r.state, r.clock())
		r.recordEnd(ctx, store.PracticeAbandon, sum)
	}
	r.state, _ = Reduce(r.policy, r.state, Reset{})
}

// track derives a cancellable context for a collaborator call. Callers
// hold r.mu.
func (r *Runner) track(ctx context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	return ctx, r.epoch
}

func (r *Runner) untrack() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Runner) recordStart(ctx context.Context) {
	if r.repo == nil {
		return
	}
	s := r.state
	err := r.repo.AppendPracticeEvent(context.WithoutCancel(ctx), store.PracticeEventData{
		SessionID:  s.SessionID,
		Action:     store.PracticeStart,
		SceneTitle: s.Scene.Title,
		Difficulty: string(s.Scene.Difficulty),
	})
	if err != nil {
		r.logger.Error("record practice start", "session", s.SessionID, "error", err)
	}
}

func (r *Runner) recordTurn(ctx context.Context, utterance string, reply Message, nonTarget bool, turnScore int) {
	if r.repo == nil {
		return
	}
	s := r.state
	data := store.TurnEventData{
		SessionID:         s.SessionID,
		Turn:              s.CurrentTurn,
		Utterance:         utterance,
		Reply:             reply.Content,
		Feedback:          reply.Feedback,
		NonTargetLanguage: nonTarget,
		TurnScore:         turnScore,
		RunningMean:       s.TotalScore,
	}
	if reply.Scores != nil {
		data.Communication = reply.Scores.Communication
		data.Accuracy = reply.Scores.Accuracy
		data.Scenario = reply.Scores.Scenario
		data.Fluency = reply.Scores.Fluency
	}
	if err := r.repo.AppendTurnEvent(context.WithoutCancel(ctx), data); err != nil {
		r.logger.Error("record turn", "session", s.SessionID, "turn", s.CurrentTurn, "error", err)
	}
}

func (r *Runner) recordEnd(ctx context.Context, action store.PracticeAction, sum *Summary) {
	if r.repo == nil {
		return
	}
	err := r.repo.AppendPracticeEvent(context.WithoutCancel(ctx), store.PracticeEventData{
		SessionID:    sum.SessionID,
		Action:       action,
		SceneTitle:   sum.Scene.Title,
		Difficulty:   string(sum.Scene.Difficulty),
		Turns:        sum.Turns,
		FinalScore:   sum.FinalScore,
		Passed:       sum.Passed,
		DurationSecs: int(sum.Duration.Seconds()),
	})
	if err != nil {
		r.logger.Error("record practice "+string(action), "session", sum.SessionID, "error", err)
	}
}
