package store

import (
	"context"
	"fmt"

	"github.com/ahabook/linguaflow/ent"
	"github.com/ahabook/linguaflow/ent/practiceevent"
)

func (r *eventRepo) AppendPracticeEvent(ctx context.Context, data PracticeEventData) error {
	action := practiceevent.Action(data.Action)
	if err := practiceevent.ActionValidator(action); err != nil {
		return fmt.Errorf("practice event: %w", err)
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.client.PracticeEvent.Create().
		SetSequence(seqNum).
		SetTimestamp(now()).
		SetSessionID(data.SessionID).
		SetAction(action).
		SetSceneTitle(data.SceneTitle).
		SetDifficulty(data.Difficulty).
		SetTurns(data.Turns).
		SetFinalScore(data.FinalScore).
		SetPassed(data.Passed).
		SetDurationSecs(data.DurationSecs).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("save practice event: %w", err)
	}
	return nil
}

// QueryPracticeSummaries pairs each start event with the end or abandon
// event of the same session. The filters of opts apply to the start.
func (r *eventRepo) QueryPracticeSummaries(ctx context.Context, opts QueryOpts) ([]PracticeSummary, error) {
	q := r.client.PracticeEvent.Query().
		Where(practiceevent.ActionEQ(practiceevent.ActionStart)).
		Order(ent.Desc(practiceevent.FieldSequence))
	for _, p := range eventFilters(opts) {
		q = q.Where(p)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	starts, err := q.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query practice starts: %w", err)
	}
	if len(starts) == 0 {
		return nil, nil
	}

	ids := make([]string, len(starts))
	for i, s := range starts {
		ids[i] = s.SessionID
	}
	closes, err := r.client.PracticeEvent.Query().
		Where(
			practiceevent.SessionIDIn(ids...),
			practiceevent.ActionIn(practiceevent.ActionEnd, practiceevent.ActionAbandon),
		).
		Order(ent.Asc(practiceevent.FieldSequence)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query practice outcomes: %w", err)
	}
	closed := make(map[string]*ent.PracticeEvent, len(closes))
	for _, c := range closes {
		closed[c.SessionID] = c
	}

	out := make([]PracticeSummary, 0, len(starts))
	for _, s := range starts {
		ps := PracticeSummary{
			SessionID:  s.SessionID,
			SceneTitle: s.SceneTitle,
			Difficulty: s.Difficulty,
			StartedAt:  s.Timestamp,
			Status:     StatusInProgress,
		}
		if c, ok := closed[s.SessionID]; ok {
			ps.Status = StatusCompleted
			if c.Action == practiceevent.ActionAbandon {
				ps.Status = StatusAbandoned
			}
			ps.Turns = c.Turns
			ps.FinalScore = c.FinalScore
			ps.Passed = c.Passed
			ps.DurationSecs = c.DurationSecs
		}
		out = append(out, ps)
	}
	return out, nil
}

func (r *eventRepo) BestScore(ctx context.Context, difficulty string) (int, bool, error) {
	e, err := r.client.PracticeEvent.Query().
		Where(
			practiceevent.ActionEQ(practiceevent.ActionEnd),
			practiceevent.DifficultyEQ(difficulty),
		).
		Order(ent.Desc(practiceevent.FieldFinalScore)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("query best score: %w", err)
	}
	return e.FinalScore, true, nil
}
