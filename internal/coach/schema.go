package coach

import "github.com/ahabook/linguaflow/internal/llm"

func dimensionProp(desc string) map[string]any {
	return map[string]any{
		"type":        "number",
		"description": desc + " Score from 0 to 100.",
	}
}

// TurnSchema defines the JSON the scorer asks the model for.
var TurnSchema = &llm.Schema{
	Name:        "turn-assessment",
	Description: "Assessment of one learner utterance plus the in-character reply",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reply": map[string]any{
				"type":        "string",
				"description": "Your next line in the role-play, in English, staying in character",
			},
			"scores": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"communication": dimensionProp("How clearly the learner got their meaning across."),
					"accuracy":      dimensionProp("Grammar and vocabulary correctness."),
					"scenario":      dimensionProp("How well the utterance fits the scene and moves toward its goal."),
					"fluency":       dimensionProp("Naturalness and flow of the phrasing."),
				},
				"required":             []any{"communication", "accuracy", "scenario", "fluency"},
				"additionalProperties": false,
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One or two sentences of coaching for the learner. May be empty.",
			},
			"non_target_language": map[string]any{
				"type":        "boolean",
				"description": "True if the learner wrote mainly in a language other than English",
			},
		},
		"required":             []any{"reply", "scores", "feedback", "non_target_language"},
		"additionalProperties": false,
	},
}

// SceneSchema defines the JSON the scene generator asks the model for.
var SceneSchema = &llm.Schema{
	Name:        "practice-scene",
	Description: "A short role-play scene for English conversation practice",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short scene title, at most six words",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "One sentence describing the situation to the learner",
			},
			"context": map[string]any{
				"type":        "string",
				"description": "Who the assistant plays and where the conversation happens",
			},
			"goal": map[string]any{
				"type":        "string",
				"description": "What the learner should accomplish in the conversation",
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": []any{"beginner", "intermediate", "advanced"},
			},
			"opening_line": map[string]any{
				"type":        "string",
				"description": "The assistant's first line that starts the role-play",
			},
		},
		"required":             []any{"title", "description", "context", "goal", "difficulty", "opening_line"},
		"additionalProperties": false,
	},
}
