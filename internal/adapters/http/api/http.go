// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/playground/internal/adapters/repository"
	service "github.com/okian/playground/internal/app"
	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/internal/domain/types"
	"github.com/okian/playground/pkg/logger"
)

const defaultMaxRankingLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	SubmitCandidate(ctx context.Context, p model.Profile) (service.Intake, error)
	SubmitSeeker(ctx context.Context, p model.Profile) (service.Outcome, error)

	PreviewMatch(ctx context.Context, seekerID string, limit int) ([]types.Entry, error)
	Matches(ctx context.Context) ([]model.MatchRecord, error)
	Candidates(ctx context.Context) ([]model.Profile, error)
	Seekers(ctx context.Context) ([]model.Profile, error)
}

// Server wires HTTP routes for the matching API.
type Server struct {
	deps            Dependencies
	logger          logger.Logger
	maxRankingLimit int

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// Option configures the Server.
type Option func(*Server)

// WithMaxRankingLimit caps the limit accepted by the ranking preview.
func WithMaxRankingLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRankingLimit = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.Named("api")
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:            deps,
		logger:          logger.Nop(),
		maxRankingLimit: defaultMaxRankingLimit,
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the chi router with every route attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Post("/candidates", s.handleSubmitCandidate)
	r.Post("/seekers", s.handleSubmitSeeker)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/matches", s.handleMatches)
		r.Get("/candidates", s.handleCandidates)
		r.Get("/seekers", s.handleSeekers)
		r.Get("/seekers/{id}/ranking", s.handleRanking)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail translates a service error into the matching status and envelope.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrInvalidSubmission):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		s.logger.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
