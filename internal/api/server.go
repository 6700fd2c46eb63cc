// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ManuGH/onair/internal/api/middleware"
	"github.com/ManuGH/onair/internal/health"
	"github.com/ManuGH/onair/internal/jobs"
	"github.com/ManuGH/onair/internal/log"
	"github.com/go-chi/chi/v5"
)

// DefaultSyncTimeout bounds a manually triggered cycle.
const DefaultSyncTimeout = 2 * time.Minute

// CycleRunner is the part of jobs.Runner the API drives.
type CycleRunner interface {
	Run(ctx context.Context, trigger string) (*jobs.Status, error)
	Last() (jobs.Status, bool)
	Running() bool
}

// Config configures the operator API.
type Config struct {
	// SyncTimeout bounds POST /api/v1/sync (0 = DefaultSyncTimeout)
	SyncTimeout time.Duration
	// SyncRateLimit overrides the manual sync limiter (zero = 6/min per IP)
	SyncRateLimit middleware.RateLimitConfig
	// TracingService names server spans; empty disables HTTP tracing
	TracingService string
}

// Server serves the operator API.
type Server struct {
	cfg    Config
	runner CycleRunner
	health *health.Manager
	router chi.Router
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Running bool         `json:"running"`
	Last    *jobs.Status `json:"last,omitempty"`
}

// New builds the server and its routes.
func New(cfg Config, runner CycleRunner, hm *health.Manager) *Server {
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = DefaultSyncTimeout
	}
	s := &Server{cfg: cfg, runner: runner, health: hm}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: s.cfg.TracingService,
		EnableLogging:  true,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		limiter := middleware.SyncRateLimit()
		if s.cfg.SyncRateLimit.RequestLimit > 0 {
			limiter = middleware.RateLimit(s.cfg.SyncRateLimit)
		}
		r.With(limiter).Post("/sync", s.handleSync)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{Running: s.runner.Running()}
	if last, ok := s.runner.Last(); ok {
		resp.Last = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSync runs one cycle and answers with its status. The cycle is
// detached from the request so a disconnecting client cannot abort it
// halfway through the updates.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.cfg.SyncTimeout)
	defer cancel()

	status, err := s.runner.Run(ctx, jobs.TriggerManual)
	switch {
	case errors.Is(err, jobs.ErrCycleInProgress):
		writeConflict(w, "5", "a sync cycle is already running")
		return
	case errors.Is(err, jobs.ErrCyclePanic):
		logger.Error().Err(err).Str(log.FieldEvent, "sync.failed").Msg("manual sync cycle panicked")
		writeInternal(w)
		return
	case err != nil:
		logger.Error().Err(err).Str(log.FieldEvent, "sync.failed").Msg("manual sync cycle failed")
		writeServiceUnavailable(w, err)
		return
	}

	logger.Info().
		Str(log.FieldEvent, "sync.completed").
		Str(log.FieldCycleID, status.CycleID).
		Int("updated", status.Updated).
		Msg("manual sync cycle completed")
	writeJSON(w, http.StatusOK, status)
}
