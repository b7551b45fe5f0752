// Package scene is the interactive role-play screen: it generates a scene,
// sends each learner turn to the coach and types the partner's reply out.
package scene

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/ahabook/linguaflow/internal/llm"
	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/router"
	"github.com/ahabook/linguaflow/internal/scoring"
	"github.com/ahabook/linguaflow/internal/screen"
	"github.com/ahabook/linguaflow/internal/screens/summary"
	"github.com/ahabook/linguaflow/internal/typewriter"
	"github.com/ahabook/linguaflow/internal/ui/components"
	"github.com/ahabook/linguaflow/internal/ui/layout"
)

// SceneScreen implements screen.Screen for one practice scene.
type SceneScreen struct {
	runner     *practice.Runner
	difficulty practice.Difficulty
	delay      time.Duration

	state       practice.State
	tw          *typewriter.Typewriter
	input       components.ChatInput
	pending     string // submitted text awaiting the scorer
	lastTurn    *practice.TurnOutcome
	confirmQuit bool
	notice      string
	errMsg      string
}

var _ screen.Screen = (*SceneScreen)(nil)
var _ screen.KeyHintProvider = (*SceneScreen)(nil)
var _ screen.StatusProvider = (*SceneScreen)(nil)
var _ screen.EscapeHandler = (*SceneScreen)(nil)

// New creates a SceneScreen that plays a generated scene at difficulty.
func New(runner *practice.Runner, difficulty practice.Difficulty, delay time.Duration) *SceneScreen {
	s := &SceneScreen{
		runner:     runner,
		difficulty: difficulty,
		delay:      delay,
		tw:         typewriter.New(delay),
		input:      components.NewChatInput("Type your reply in English..."),
	}
	s.input.Lock("Setting the scene...")
	return s
}

func (s *SceneScreen) Init() tea.Cmd {
	return s.begin()
}

func (s *SceneScreen) Title() string {
	if s.state.Scene != nil {
		return s.state.Scene.Title
	}
	return "New Scene"
}

func (s *SceneScreen) Status() string {
	if s.state.Scene == nil {
		return s.difficulty.DisplayName() + "  "
	}
	p := s.runner.Policy()
	status := fmt.Sprintf("Turn %d/%d  Score %d", s.state.CurrentTurn, p.MaxTurns, s.state.TotalScore)
	if s.state.ScoreChange != nil {
		status += " (" + scoring.FormatDelta(*s.state.ScoreChange) + ")"
	}
	return status + "  "
}

func (s *SceneScreen) HandlesEscape() bool {
	return true
}

func (s *SceneScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave scene"},
			{Key: "N", Description: "Keep talking"},
		}
	case s.tw.InFlight():
		return []layout.KeyHint{
			{Key: "any key", Description: "Skip"},
			{Key: "Esc", Description: "Leave"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Esc", Description: "Leave"},
	}
}

func (s *SceneScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sceneReadyMsg:
		return s.handleSceneReady(msg)
	case turnDoneMsg:
		return s.handleTurnDone(msg)
	case typeTickMsg:
		return s.handleTypeTick(msg)
	case revealDoneMsg:
		return s.handleRevealDone(msg)
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// begin generates the scene asynchronously. A runner that already played a
// scene is restarted at the same difficulty.
func (s *SceneScreen) begin() tea.Cmd {
	runner, difficulty := s.runner, s.difficulty
	return func() tea.Msg {
		ctx := context.Background()
		var (
			scene *practice.SceneInfo
			err   error
		)
		if runner.Snapshot().Phase() == practice.PhaseIdle {
			scene, err = runner.Begin(ctx, difficulty)
		} else {
			scene, err = runner.Restart(ctx)
		}
		return sceneReadyMsg{Scene: scene, Err: err}
	}
}

func (s *SceneScreen) handleSceneReady(msg sceneReadyMsg) (screen.Screen, tea.Cmd) {
	if errors.Is(msg.Err, practice.ErrAbandoned) {
		return s, nil
	}
	if msg.Err != nil {
		s.errMsg = "Could not create a scene: " + msg.Err.Error()
		var auth *llm.ErrAuth
		if errors.As(msg.Err, &auth) {
			s.errMsg = "The AI service rejected the API key. Check your configuration and try again."
		}
		return s, nil
	}
	s.state = s.runner.Snapshot()
	return s, s.input.Unlock()
}

func (s *SceneScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, s.leave()
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, s.leave()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if key == "esc" {
		if s.state.Scene == nil && s.pending == "" {
			return s, s.leave()
		}
		s.confirmQuit = true
		return s, nil
	}

	// Any key while the reply is being typed shows it in full.
	if s.tw.InFlight() {
		s.tw.Finish()
		return s, s.finishReveal()
	}

	if s.input.Locked() {
		return s, nil
	}

	if key == "enter" {
		return s.submit()
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	_ = s.runner.SetInput(s.input.Value())
	return s, cmd
}

func (s *SceneScreen) submit() (screen.Screen, tea.Cmd) {
	text := s.input.Value()
	if !s.state.CanSubmit(s.runner.Policy(), text) {
		if strings.TrimSpace(text) == "" {
			s.notice = "Type something to say first."
		}
		return s, nil
	}

	s.notice = ""
	s.pending = text
	s.input.Reset()
	s.input.Lock("Your partner is thinking...")

	runner := s.runner
	return s, func() tea.Msg {
		out, err := runner.Submit(context.Background(), text)
		return turnDoneMsg{Outcome: out, Err: err}
	}
}

func (s *SceneScreen) handleTurnDone(msg turnDoneMsg) (screen.Screen, tea.Cmd) {
	if errors.Is(msg.Err, practice.ErrAbandoned) {
		return s, nil
	}
	s.pending = ""
	s.state = s.runner.Snapshot()

	if msg.Err != nil {
		// The runner put the message back in its input buffer.
		s.input.SetValue(s.state.Input)
		s.notice = deliveryNotice(msg.Err)
		return s, s.input.Unlock()
	}

	s.lastTurn = msg.Outcome
	s.input.Lock("")
	s.tw.Start(msg.Outcome.Reply.Content, nil, nil)
	return s, s.tick()
}

// tick schedules the next rune of the current reveal.
func (s *SceneScreen) tick() tea.Cmd {
	gen := s.tw.Generation()
	return tea.Tick(s.tw.Delay, func(time.Time) tea.Msg {
		return typeTickMsg{Gen: gen}
	})
}

func (s *SceneScreen) handleTypeTick(msg typeTickMsg) (screen.Screen, tea.Cmd) {
	if msg.Gen != s.tw.Generation() || !s.tw.InFlight() {
		return s, nil
	}
	if s.tw.Advance() {
		return s, s.tick()
	}
	return s, s.finishReveal()
}

func (s *SceneScreen) finishReveal() tea.Cmd {
	runner := s.runner
	return func() tea.Msg {
		sum, err := runner.TypewriterDone(context.Background())
		return revealDoneMsg{Summary: sum, Err: err}
	}
}

func (s *SceneScreen) handleRevealDone(msg revealDoneMsg) (screen.Screen, tea.Cmd) {
	s.state = s.runner.Snapshot()
	if msg.Err != nil {
		s.notice = msg.Err.Error()
	}
	if msg.Summary != nil {
		next := summary.New(msg.Summary, s.again)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
	}
	return s, s.input.Unlock()
}

// again builds a fresh screen for another scene on the same runner.
func (s *SceneScreen) again() screen.Screen {
	return New(s.runner, s.difficulty, s.delay)
}

// leave abandons the scene and returns to the previous screen.
func (s *SceneScreen) leave() tea.Cmd {
	s.tw.Stop()
	s.runner.Abandon(context.Background())
	return func() tea.Msg { return router.PopScreenMsg{} }
}

// deliveryNotice explains a failed turn. The message is back in the input
// box in every case.
func deliveryNotice(err error) string {
	var (
		auth *llm.ErrAuth
		rl   *llm.ErrRateLimit
	)
	switch {
	case errors.As(err, &auth):
		return "The AI service rejected the API key. Check your configuration."
	case errors.As(err, &rl):
		return "The AI service is busy. Wait a moment, then press Enter to resend."
	default:
		return "Your message was not delivered: " + err.Error() + ". Press Enter to resend."
	}
}
