package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/typewriter"
)

// revealFrame is one WebSocket message of a reveal stream.
type revealFrame struct {
	Type      string       `json:"type"` // progress, complete or error
	Displayed string       `json:"displayed,omitempty"`
	Percent   int          `json:"percent,omitempty"`
	Session   *sessionView `json:"session,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// reveal streams the latest assistant reply rune by rune. When the reply
// is fully shown the typing phase is completed and the final session
// state is sent. If the client goes away first, the session stays in the
// typing phase so the reveal can be requested again.
func (s *Server) reveal(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	snap := e.runner.Snapshot()
	if snap.Phase() != practice.PhaseAssistantTyping {
		writeError(w, http.StatusConflict, "no reply is being typed")
		return
	}
	msg, _ := snap.LastAssistant()
	if !e.revealing.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "reveal already in progress")
		return
	}
	defer e.revealing.Store(false)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		slog.Error("accept websocket", "error", err, "id", e.id)
		return
	}
	defer conn.CloseNow()

	// The stream is one-way; CloseRead handles control frames and cancels
	// ctx when the client disconnects.
	ctx := conn.CloseRead(r.Context())

	tw := typewriter.New(s.revealDelay)
	var writeErr error
	completed := false
	tw.Start(msg.Content, func(p typewriter.Progress) {
		frame := revealFrame{Type: "progress", Displayed: p.Displayed, Percent: p.Percent}
		if err := wsjson.Write(ctx, conn, frame); err != nil {
			writeErr = err
			tw.Stop()
		}
	}, func() {
		completed = true
	})

	if err := tw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Debug("reveal interrupted", "error", err, "id", e.id)
	}
	if !completed {
		if writeErr != nil {
			slog.Debug("reveal write failed", "error", writeErr, "id", e.id)
		}
		return
	}

	if _, err := e.runner.TypewriterDone(ctx); err != nil {
		_ = wsjson.Write(ctx, conn, revealFrame{Type: "error", Error: err.Error()})
		conn.Close(websocket.StatusPolicyViolation, "reveal rejected")
		return
	}
	view := s.view(e)
	if err := wsjson.Write(ctx, conn, revealFrame{Type: "complete", Session: &view}); err != nil {
		slog.Debug("write reveal completion", "error", err, "id", e.id)
		return
	}
	conn.Close(websocket.StatusNormalClosure, "reveal complete")
}
