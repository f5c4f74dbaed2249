package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finplan/internal/log"
	"finplan/internal/projection"
	"finplan/internal/services"
)

// errorBody is the payload of every failed request.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	body := errorBody{Error: err.Error(), RequestID: w.Header().Get("X-Request-ID")}
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldError, err)
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	}
	writeJSON(w, status, body)
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded, retry later"))
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrExportUnavailable), errors.Is(err, services.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	case projection.IsInputError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
