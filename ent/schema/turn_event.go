package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TurnEvent records one committed turn with its dimension scores.
type TurnEvent struct {
	ent.Schema
}

func (TurnEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (TurnEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty(),
		field.Int("turn").
			Positive(),
		field.Text("utterance"),
		field.Text("reply"),
		field.Text("feedback").
			Default(""),
		field.Int("communication").
			Range(0, 100),
		field.Int("accuracy").
			Range(0, 100),
		field.Int("scenario").
			Range(0, 100),
		field.Int("fluency").
			Range(0, 100),
		field.Bool("non_target_language").
			Default(false),
		field.Int("turn_score").
			Range(0, 100),
		field.Int("running_mean").
			Range(0, 100),
	}
}

func (TurnEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id", "turn").
			Unique(),
	}
}
