package store

import (
	"context"
	"fmt"

	"github.com/ahabook/linguaflow/ent"
	"github.com/ahabook/linguaflow/ent/turnevent"
)

func (r *eventRepo) AppendTurnEvent(ctx context.Context, data TurnEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.client.TurnEvent.Create().
		SetSequence(seqNum).
		SetTimestamp(now()).
		SetSessionID(data.SessionID).
		SetTurn(data.Turn).
		SetUtterance(data.Utterance).
		SetReply(data.Reply).
		SetFeedback(data.Feedback).
		SetCommunication(data.Communication).
		SetAccuracy(data.Accuracy).
		SetScenario(data.Scenario).
		SetFluency(data.Fluency).
		SetNonTargetLanguage(data.NonTargetLanguage).
		SetTurnScore(data.TurnScore).
		SetRunningMean(data.RunningMean).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("save turn event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryTurns(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	rows, err := r.client.TurnEvent.Query().
		Where(turnevent.SessionIDEQ(sessionID)).
		Order(ent.Asc(turnevent.FieldTurn)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}

	out := make([]TurnRecord, 0, len(rows))
	for _, t := range rows {
		out = append(out, TurnRecord{
			Sequence:  t.Sequence,
			Timestamp: t.Timestamp,
			TurnEventData: TurnEventData{
				SessionID:         t.SessionID,
				Turn:              t.Turn,
				Utterance:         t.Utterance,
				Reply:             t.Reply,
				Feedback:          t.Feedback,
				Communication:     t.Communication,
				Accuracy:          t.Accuracy,
				Scenario:          t.Scenario,
				Fluency:           t.Fluency,
				NonTargetLanguage: t.NonTargetLanguage,
				TurnScore:         t.TurnScore,
				RunningMean:       t.RunningMean,
			},
		})
	}
	return out, nil
}
