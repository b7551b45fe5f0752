// Package typewriter reveals text one rune at a time.
//
// A Typewriter is a cooperative stepper: each Advance shows one more rune.
// Callers either step it from their own event loop (the TUI schedules a
// tick per step) or call Run to step it with a ticker. A Typewriter is not
// safe for concurrent use.
package typewriter

import (
	"context"
	"time"
)

// DefaultDelay is the pause between revealed runes.
const DefaultDelay = 30 * time.Millisecond

// Progress describes the visible part of a reveal.
type Progress struct {
	Displayed string
	Percent   int
}

// Typewriter drives at most one reveal at a time.
type Typewriter struct {
	Delay time.Duration

	text       []rune
	pos        int
	stepped    bool
	inFlight   bool
	gen        uint64
	onProgress func(Progress)
	onComplete func()
}

// New returns a Typewriter with the given delay, or DefaultDelay if d <= 0.
func New(d time.Duration) *Typewriter {
	if d <= 0 {
		d = DefaultDelay
	}
	return &Typewriter{Delay: d}
}

// Start begins revealing text. It returns false and does nothing while a
// previous reveal is still in flight. Either callback may be nil.
func (t *Typewriter) Start(text string, onProgress func(Progress), onComplete func()) bool {
	if t.inFlight {
		return false
	}
	t.gen++
	t.text = []rune(text)
	t.pos = 0
	t.stepped = false
	t.inFlight = true
	t.onProgress = onProgress
	t.onComplete = onComplete
	return true
}

// Advance reveals one more rune and reports whether the reveal is still in
// flight afterwards. The step that shows the last rune fires completion.
// Empty text completes on the first step.
func (t *Typewriter) Advance() bool {
	if !t.inFlight {
		return false
	}
	if t.pos < len(t.text) {
		t.pos++
	}
	t.stepped = true
	if !t.emit() {
		return t.inFlight
	}
	if t.pos < len(t.text) {
		return true
	}
	t.complete()
	return false
}

// Finish reveals the remaining text at once and fires completion.
func (t *Typewriter) Finish() {
	if !t.inFlight {
		return
	}
	t.pos = len(t.text)
	t.stepped = true
	if t.emit() {
		t.complete()
	}
}

// Stop cancels the reveal. No further runes are shown and completion never
// fires for it. A new Start is permitted afterwards.
func (t *Typewriter) Stop() {
	if !t.inFlight {
		return
	}
	t.inFlight = false
	t.onProgress = nil
	t.onComplete = nil
}

// Run steps the current reveal every Delay until it completes, is stopped,
// or ctx is done. Cancellation stops the reveal and returns ctx.Err().
func (t *Typewriter) Run(ctx context.Context) error {
	if !t.inFlight {
		return nil
	}
	delay := t.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	gen := t.gen
	for {
		select {
		case <-ctx.Done():
			if t.gen == gen {
				t.Stop()
			}
			return ctx.Err()
		case <-ticker.C:
			if t.gen != gen || !t.Advance() {
				return nil
			}
		}
	}
}

// Displayed returns the revealed prefix of the current or last reveal.
func (t *Typewriter) Displayed() string {
	return string(t.text[:t.pos])
}

// Percent returns how much of the text is revealed, 0-100. Empty text
// counts as fully revealed once stepped.
func (t *Typewriter) Percent() int {
	if len(t.text) == 0 {
		if t.inFlight && !t.stepped {
			return 0
		}
		return 100
	}
	return t.pos * 100 / len(t.text)
}

// InFlight reports whether a reveal is in progress.
func (t *Typewriter) InFlight() bool {
	return t.inFlight
}

// Generation identifies the current reveal. It changes on every Start so
// a scheduled step for an older reveal can be recognised and dropped.
func (t *Typewriter) Generation() uint64 {
	return t.gen
}

// emit fires the progress callback and reports whether the same reveal is
// still running afterwards; the callback may Stop or restart it.
func (t *Typewriter) emit() bool {
	if t.onProgress == nil {
		return true
	}
	gen := t.gen
	t.onProgress(Progress{Displayed: t.Displayed(), Percent: t.Percent()})
	return t.inFlight && t.gen == gen
}

func (t *Typewriter) complete() {
	done := t.onComplete
	t.inFlight = false
	t.onProgress = nil
	t.onComplete = nil
	if done != nil {
		done()
	}
}
