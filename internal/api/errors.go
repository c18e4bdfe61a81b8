package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"bamboowoods/internal/service"
)

const (
	msgDatabase      = "database error"
	msgInternal      = "internal error"
	msgNotFound      = "not found"
	msgUnauthorized  = "unauthorized"
	msgMissingEmail  = "Server configuration error: Missing Email Key"
	msgMissingPlaces = "Missing API credentials"
	msgReviewsFailed = "Server error fetching reviews"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// statusFor maps service errors onto HTTP status codes and client-safe
// messages. Database details never reach the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, service.ErrRateLimited.Error()
	case errors.Is(err, service.ErrDatabase):
		return http.StatusInternalServerError, msgDatabase
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", requestIDFrom(r.Context())).Msg("request failed")
	}
	writeError(w, code, msg)
}
