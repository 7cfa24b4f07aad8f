package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"agency-pipeline/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCoreError maps the core's typed errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals do not leak.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound     *core.NotFoundError
		invalid      *core.InvalidTransitionError
		conflict     *core.ConflictError
		validation   *core.ValidationError
		unauthorized *core.UnauthorizedError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &invalid):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusUnprocessableEntity)
	case errors.As(err, &conflict):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case errors.As(err, &validation):
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	case errors.As(err, &unauthorized):
		writeError(w, r, err.Error(), "UNAUTHORIZED", http.StatusUnauthorized)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
