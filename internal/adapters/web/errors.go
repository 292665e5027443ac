package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"branch-supply/internal/core"
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
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeJSON writes a 200 JSON response.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeBody encodes v to a response whose status has already been written.
func writeBody(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

// statusForKind maps the business error taxonomy onto HTTP statuses.
func statusForKind(k core.Kind) int {
	switch k {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindAuthorization:
		return http.StatusForbidden
	case core.KindInvalidState:
		return http.StatusConflict
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError translates a service-layer error. Business errors keep
// their client-safe message and machine-readable kind; anything else becomes
// an opaque 500. Internal detail (query text, wrapped causes) leaves the
// process only in dev mode.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	if kind == "" {
		log.Printf("internal error: %v rid=%s", err, requestIDFromContext(r.Context()))
		msg := "internal server error"
		if h.devMode {
			msg = err.Error()
		}
		writeError(w, r, msg, "internal_error", http.StatusInternalServerError)
		return
	}

	msg := err.Error()
	var e *core.Error
	if !h.devMode && errors.As(err, &e) {
		// Strip wrapped cause detail outside dev mode.
		msg = e.Message
	}
	writeError(w, r, msg, string(kind), statusForKind(kind))
}
