package practice

import (
	"errors"
	"fmt"
)

// ErrRejected is wrapped by every error returned for an event that is not
// valid in the current state. A rejected event leaves the state unchanged.
var ErrRejected = errors.New("transition rejected")

var (
	ErrEmptyInput    = fmt.Errorf("%w: input is empty", ErrRejected)
	ErrFinished      = fmt.Errorf("%w: session already finished", ErrRejected)
	ErrMaxTurns      = fmt.Errorf("%w: maximum turns reached", ErrRejected)
	ErrWrongPhase    = fmt.Errorf("%w: not allowed in current phase", ErrRejected)
	ErrUnknownMsg    = fmt.Errorf("%w: no assistant message with that id", ErrRejected)
	ErrInvalidScene  = fmt.Errorf("%w: scene is incomplete", ErrRejected)
	ErrUnknownEvent  = fmt.Errorf("%w: unknown event", ErrRejected)
	ErrEmptyResponse = fmt.Errorf("%w: assessment has no reply", ErrRejected)
)

// ErrAbandoned is returned when a session is reset while a collaborator
// call was in flight. The late result is discarded.
var ErrAbandoned = errors.New("session abandoned")

func wrongPhase(p Phase, event string) error {
	return fmt.Errorf("%w: %s during %s", ErrWrongPhase, event, p)
}
