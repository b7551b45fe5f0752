package coach

import (
	"fmt"
	"strings"

	"github.com/ahabook/linguaflow/internal/practice"
)

const scorerRules = `You are an English conversation partner and coach. You play a character in a short role-play while assessing the learner's English.

Rules:
- Stay in character. Your reply continues the conversation naturally in English and is at most three sentences.
- Score only the learner's latest message on four dimensions from 0 to 100:
  communication (is the meaning clear), accuracy (grammar and vocabulary), scenario (does it fit the scene and move toward the goal), fluency (does it sound natural).
- Match your expectations to the scene difficulty. A beginner who is understood with small errors deserves 70-85.
- Set non_target_language to true only if the learner wrote mainly in a language other than English.
- Feedback is one or two short sentences addressed to the learner. It may be empty if there is nothing to improve.`

const lenientFormat = `

Respond with only a JSON object, no prose and no code fences:
{"reply": string, "scores": {"communication": number, "accuracy": number, "scenario": number, "fluency": number}, "feedback": string, "non_target_language": boolean}`

// buildScorerSystem returns the system prompt for a scene.
func buildScorerSystem(scene practice.SceneInfo, lenient bool) string {
	var b strings.Builder
	b.WriteString(scorerRules)
	b.WriteString("\n\nScene:\n")
	writeScene(&b, scene)
	if lenient {
		b.WriteString(lenientFormat)
	}
	return b.String()
}

func writeScene(b *strings.Builder, scene practice.SceneInfo) {
	fmt.Fprintf(b, "Title: %s\n", scene.Title)
	fmt.Fprintf(b, "Situation: %s\n", scene.Description)
	fmt.Fprintf(b, "Your role and setting: %s\n", scene.Context)
	fmt.Fprintf(b, "Learner's goal: %s\n", scene.Goal)
	fmt.Fprintf(b, "Difficulty: %s", scene.Difficulty)
}

// buildTurnMessage renders the bounded transcript and the new utterance.
func buildTurnMessage(history []practice.Message, utterance string, turns int) string {
	var b strings.Builder

	b.WriteString("Conversation so far:\n")
	recent := recentTurns(history, turns)
	if len(recent) == 0 {
		b.WriteString("(none)\n")
	}
	for _, m := range recent {
		speaker := "Learner"
		if m.Role == practice.RoleAssistant {
			speaker = "You"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}

	b.WriteString("\nLearner's latest message:\n")
	b.WriteString(strings.TrimSpace(utterance))
	return b.String()
}

// recentTurns keeps the user and assistant messages of the last n turns.
// A turn starts at a user message; an opening line before the first user
// message belongs to the first turn.
func recentTurns(history []practice.Message, n int) []practice.Message {
	var msgs []practice.Message
	for _, m := range history {
		if m.Role == practice.RoleUser || m.Role == practice.RoleAssistant {
			msgs = append(msgs, m)
		}
	}
	if n <= 0 {
		return msgs
	}

	seen := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != practice.RoleUser {
			continue
		}
		seen++
		if seen == n {
			if i == firstUser(msgs) {
				return msgs
			}
			return msgs[i:]
		}
	}
	return msgs
}

func firstUser(msgs []practice.Message) int {
	for i, m := range msgs {
		if m.Role == practice.RoleUser {
			return i
		}
	}
	return -1
}

const sceneSystem = `You design short role-play scenes for adults practising spoken English.

Rules:
- The scene is an everyday situation with one clear, achievable goal for the learner.
- You will play the other person. The context says who you are and where the conversation happens.
- Match vocabulary and situation complexity to the requested difficulty.
- The opening line is what your character says first. It invites the learner to respond.
- Do not reuse any of the recent scene titles listed.`

const sceneFormat = `

Respond with only a JSON object, no prose and no code fences:
{"title": string, "description": string, "context": string, "goal": string, "difficulty": "beginner" | "intermediate" | "advanced", "opening_line": string}`

// buildSceneSystem returns the scene designer prompt.
func buildSceneSystem(lenient bool) string {
	if lenient {
		return sceneSystem + sceneFormat
	}
	return sceneSystem
}

// buildSceneMessage asks for a scene at a difficulty.
func buildSceneMessage(difficulty practice.Difficulty, avoid []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Difficulty: %s\n", difficulty)
	b.WriteString("\nRecent scene titles:\n")
	if len(avoid) == 0 {
		b.WriteString("None")
	}
	for i, t := range avoid {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return strings.TrimRight(b.String(), "\n")
}
