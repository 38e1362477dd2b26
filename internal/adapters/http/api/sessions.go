package api

import (
	"net/http"
	"strings"
)

// IdempotencyHeader may carry the request id of an ingredient addition.
const IdempotencyHeader = "Idempotency-Key"

type countRequest struct {
	Count int `json:"count"`
}

type addRequest struct {
	Ingredient int    `json:"ingredient"`
	RequestID  string `json:"request_id"`
}

// SessionsHandler serves the recipe session routes.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions. The count is optional.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req countRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.CreateSession(r.Context(), req.Count)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.get_session", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "api.delete_session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleInitialize handles POST /sessions/{id}/initialize.
func (h *SessionsHandler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	const op = "api.initialize_session"
	var req countRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.Initialize(r.Context(), r.PathValue("id"), req.Count)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleAddIngredient handles POST /sessions/{id}/ingredients.
func (h *SessionsHandler) HandleAddIngredient(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_ingredient"
	var req addRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	}
	tr, err := h.deps.AddIngredient(r.Context(), r.PathValue("id"), req.Ingredient, requestID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// HandleReset handles POST /sessions/{id}/reset.
func (h *SessionsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.reset_session", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleHistory handles GET /sessions/{id}/history.
func (h *SessionsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	steps, err := h.deps.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.session_history", err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}
