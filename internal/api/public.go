package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"bamboowoods/internal/models"
	"bamboowoods/internal/places"
)

const maxBodyBytes = 64 << 10

func (s *Server) handleSubmitBooking(w http.ResponseWriter, r *http.Request) {
	var in models.Inquiry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.deps.Bookings.Submit(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleBookingTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": models.EventTypes})
}

func (s *Server) handlePublicMenu(w http.ResponseWriter, r *http.Request) {
	sections, err := s.deps.Menu.Public(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

// handleReviews relays the place details result unchanged.
func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reviews == nil {
		writeError(w, http.StatusInternalServerError, msgMissingPlaces)
		return
	}

	result, err := s.deps.Reviews.Details(r.Context())
	if err != nil {
		var upstream *places.UpstreamError
		switch {
		case errors.Is(err, places.ErrMissingCredentials):
			writeError(w, http.StatusInternalServerError, msgMissingPlaces)
		case errors.As(err, &upstream):
			writeError(w, http.StatusBadRequest, upstream.Message)
		default:
			s.logger.Error().Err(err).Msg("reviews fetch failed")
			writeError(w, http.StatusInternalServerError, msgReviewsFailed)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}
