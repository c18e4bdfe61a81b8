package api

import (
	"errors"
	"io"
	"net/http"

	"bamboowoods/internal/notification"
)

const functionPath = "/functions/booking-email"

func setFunctionCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
}

func (s *Server) handleFunctionPreflight(w http.ResponseWriter, _ *http.Request) {
	setFunctionCORS(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleBookingEmail sends one confirmation or rejection email and returns
// the provider's reply.
func (s *Server) handleBookingEmail(w http.ResponseWriter, r *http.Request) {
	setFunctionCORS(w)

	if !s.functionAuthorized(r) {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	if s.deps.Notifier == nil {
		writeError(w, http.StatusInternalServerError, msgMissingEmail)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := notification.ParseRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.deps.Notifier.Notify(r.Context(), msg)
	if err != nil {
		if errors.Is(err, notification.ErrMissingAPIKey) {
			writeError(w, http.StatusInternalServerError, msgMissingEmail)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(reply) == 0 {
		reply = []byte("{}")
	}
	_, _ = w.Write(reply)
}
