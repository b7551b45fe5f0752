package scene

import "github.com/ahabook/linguaflow/internal/practice"

// sceneReadyMsg is sent when scene generation finishes.
type sceneReadyMsg struct {
	Scene *practice.SceneInfo
	Err   error
}

// turnDoneMsg is sent when the scorer has answered a submitted turn.
type turnDoneMsg struct {
	Outcome *practice.TurnOutcome
	Err     error
}

// typeTickMsg advances the reveal identified by Gen by one rune.
type typeTickMsg struct {
	Gen uint64
}

// revealDoneMsg is sent once the runner has accepted the finished reveal.
type revealDoneMsg struct {
	Summary *practice.Summary
	Err     error
}
