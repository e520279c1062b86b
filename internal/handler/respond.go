package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode response", "error", err, "path", r.URL.Path)
	}
}

// decodeJSON reads the request body into dst. It returns a client-facing
// status and message when the body is unusable.
func decodeJSON(r *http.Request, dst any) (int, string, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return http.StatusBadRequest, "request body is required", false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, "request body too large", false
		}
		return http.StatusBadRequest, "malformed JSON: " + err.Error(), false
	}
	return 0, "", true
}

// internalError logs err and answers 500 without leaking details.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	writeJSON(w, r, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
}
