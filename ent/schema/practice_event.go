package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PracticeEvent records the start and the end of a scene session. A
// session with a start and no end was interrupted.
type PracticeEvent struct {
	ent.Schema
}

func (PracticeEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (PracticeEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty(),
		field.Enum("action").
			Values("start", "end", "abandon"),
		field.String("scene_title").
			Default(""),
		field.String("difficulty").
			Default(""),
		field.Int("turns").
			Default(0).
			Comment("Committed turns (end and abandon only)"),
		field.Int("final_score").
			Default(0),
		field.Bool("passed").
			Default(false),
		field.Int("duration_secs").
			Default(0),
	}
}

func (PracticeEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
	}
}
