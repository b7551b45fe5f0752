// Package server exposes practice sessions over HTTP, with a WebSocket
// stream for the typewriter reveal of assistant replies.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ahabook/linguaflow/internal/config"
	"github.com/ahabook/linguaflow/internal/llm"
	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/store"
)

// APIKeyHeader carries an optional per-session provider credential.
const APIKeyHeader = "X-LLM-API-Key"

// Options configures a Server.
type Options struct {
	Registry  *Registry
	NewRunner RunnerFactory

	// Repo backs the history endpoint. Optional.
	Repo store.EventRepo

	// RevealDelay is the pause between revealed runes on the WebSocket.
	RevealDelay time.Duration

	// AllowOrigins lists WebSocket origin patterns. Empty allows same
	// origin only.
	AllowOrigins []string
}

// Server routes HTTP requests to practice sessions.
type Server struct {
	registry    *Registry
	newRunner   RunnerFactory
	repo        store.EventRepo
	revealDelay time.Duration
	origins     []string
}

// New creates a Server.
func New(opts Options) *Server {
	return &Server{
		registry:    opts.Registry,
		newRunner:   opts.NewRunner,
		repo:        opts.Repo,
		revealDelay: opts.RevealDelay,
		origins:     opts.AllowOrigins,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/history", s.history)
		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/turns", s.submitTurn)
			r.Post("/typed", s.typed)
			r.Get("/reveal", s.reveal)
		})
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully and
// abandons all live sessions.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.Handler(),
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
	}

	sweepEvery := cfg.SweepEvery
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	go s.registry.Run(ctx, sweepEvery)

	errc := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.registry.Close(shutdownCtx)
	return err
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Len(),
	})
}

type createRequest struct {
	Difficulty string              `json:"difficulty"`
	Scene      *practice.SceneInfo `json:"scene,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	runner, err := s.newRunner(r.Header.Get(APIKeyHeader))
	if err != nil {
		slog.Error("create runner", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if key := r.Header.Get(APIKeyHeader); key != "" {
		_ = runner.SetAPIKey(key)
	}

	if req.Scene != nil {
		err = runner.BeginWith(r.Context(), *req.Scene)
	} else {
		difficulty := practice.DifficultyBeginner
		if req.Difficulty != "" {
			difficulty, err = practice.ParseDifficulty(req.Difficulty)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		_, err = runner.Begin(r.Context(), difficulty)
	}
	if err != nil {
		writeFailure(w, err)
		return
	}

	e := s.registry.add(runner)
	slog.Info("session created", "id", e.id, "session_id", runner.Snapshot().SessionID)
	writeJSON(w, http.StatusCreated, s.view(e))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.view(e))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.registry.remove(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	e.runner.Abandon(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type turnRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	Turn    turnView    `json:"turn"`
	Session sessionView `json:"session"`
}

func (s *Server) submitTurn(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := e.runner.Submit(r.Context(), req.Text)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{Turn: newTurnView(out), Session: s.view(e)})
}

func (s *Server) typed(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if _, err := e.runner.TypewriterDone(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(e))
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeJSON(w, http.StatusOK, []store.PracticeSummary{})
		return
	}
	sums, err := s.repo.QueryPracticeSummaries(r.Context(), store.QueryOpts{Limit: 50})
	if err != nil {
		slog.Error("query history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if sums == nil {
		sums = []store.PracticeSummary{}
	}
	writeJSON(w, http.StatusOK, sums)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, ok := s.registry.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return e, ok
}

func (s *Server) view(e *entry) sessionView {
	return newSessionView(e.id, e.runner.Policy(), e.runner.Snapshot(), e.runner.Summary())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure maps runner and provider errors to HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	var (
		rl   *llm.ErrRateLimit
		auth *llm.ErrAuth
	)
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, practice.ErrEmptyInput), errors.Is(err, practice.ErrInvalidScene):
		status = http.StatusBadRequest
	case errors.Is(err, practice.ErrRejected):
		status = http.StatusConflict
	case errors.Is(err, practice.ErrAbandoned):
		status = http.StatusGone
	case errors.As(err, &auth):
		status = http.StatusUnauthorized
	case errors.As(err, &rl):
		status = http.StatusTooManyRequests
		if rl.RetryAfter > 0 {
			w.Header().Set("Retry-After", retryAfterSeconds(rl.RetryAfter))
		}
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeError(w, status, err.Error())
}

// retryAfterSeconds renders d as whole seconds, rounded up so that a
// sub-second wait never tells the client to retry at once.
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
