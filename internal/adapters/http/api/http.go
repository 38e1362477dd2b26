// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/caloric/internal/adapters/repository"
	"github.com/okian/caloric/internal/domain/dedupe"
	"github.com/okian/caloric/internal/domain/distribution"
	"github.com/okian/caloric/internal/domain/types"
)

// maxBodyBytes caps request bodies; every request shape is tiny.
const maxBodyBytes = 4 << 10

// Dependencies required by HTTP handlers.
type Dependencies interface {
	CreateSession(ctx context.Context, count int) (types.Session, error)
	Initialize(ctx context.Context, id string, count int) (types.Session, error)
	AddIngredient(ctx context.Context, id string, ingredient int, requestID string) (types.Transition, error)
	Reset(ctx context.Context, id string) (types.Session, error)
	Snapshot(ctx context.Context, id string) (types.Session, error)
	History(ctx context.Context, id string) ([]types.HistoryStep, error)
	DeleteSession(ctx context.Context, id string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	h := s.sessionsHandler
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /sessions", MetricsMiddleware(h.HandleCreate, "sessions_create"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(h.HandleGet, "sessions_get"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(h.HandleDelete, "sessions_delete"))
	mux.HandleFunc("POST /sessions/{id}/initialize", MetricsMiddleware(h.HandleInitialize, "sessions_initialize"))
	mux.HandleFunc("POST /sessions/{id}/ingredients", MetricsMiddleware(h.HandleAddIngredient, "sessions_add"))
	mux.HandleFunc("POST /sessions/{id}/reset", MetricsMiddleware(h.HandleReset, "sessions_reset"))
	mux.HandleFunc("GET /sessions/{id}/history", MetricsMiddleware(h.HandleHistory, "sessions_history"))
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

// writeServiceError translates service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, distribution.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, "invalid_configuration", Wrap(op, err))
	case errors.Is(err, distribution.ErrUnknownIngredient):
		writeError(w, http.StatusBadRequest, "unknown_ingredient", Wrap(op, err))
	case errors.Is(err, distribution.ErrNotInitialized):
		writeError(w, http.StatusConflict, "not_initialized", Wrap(op, err))
	case errors.Is(err, dedupe.ErrConflict):
		writeError(w, http.StatusConflict, "request_conflict", Wrap(op, err))
	case errors.Is(err, repository.ErrCapacity):
		writeError(w, http.StatusTooManyRequests, "capacity", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
