package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bamboowoods/internal/clock"
	"bamboowoods/internal/export"
	"bamboowoods/internal/models"
	"bamboowoods/internal/service"
)

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) actor(r *http.Request) string {
	if session := sessionFrom(r.Context()); session != nil {
		return session.Email
	}
	return ""
}

func (s *Server) handleDashboardState(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Dashboard.State(r.Context(), sessionFrom(r.Context()).Token)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab string `json:"tab"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	st, err := s.deps.Dashboard.SelectTab(r.Context(), sessionFrom(r.Context()).Token, req.Tab)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// listParams keeps only the query parameters the request actually sent.
func listParams(r *http.Request) (service.ListParams, error) {
	var p service.ListParams
	q := r.URL.Query()

	if q.Has("view") {
		view, err := models.ParseListView(q.Get("view"))
		if err != nil {
			return p, err
		}
		p.View = &view
	}
	if q.Has("q") {
		term := strings.TrimSpace(q.Get("q"))
		p.Search = &term
	}
	if q.Has("page") {
		page, err := strconv.Atoi(q.Get("page"))
		if err != nil {
			return p, err
		}
		p.Page = &page
	}
	return p, nil
}

type bookingListResponse struct {
	*models.BookingPage
	State *models.DashboardState `json:"state"`
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, st, err := s.deps.Dashboard.Bookings(r.Context(), sessionFrom(r.Context()).Token, params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingListResponse{BookingPage: page, State: st})
}

func (s *Server) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	view, err := models.ParseListView(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("q"))

	bookings, err := s.deps.Bookings.Export(r.Context(), view, search)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	title := "Upcoming bookings"
	if view == models.ViewHistory {
		title = "Booking history"
	}
	if search != "" {
		title += " matching \"" + search + "\""
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, title, bookings); err != nil {
		s.logger.Error().Err(err).Msg("xlsx export failed")
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	today := clock.Today(s.deps.Clock).Format(models.DateLayout)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(view, today)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	booking, err := s.deps.Bookings.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type outcomeResponse struct {
	Booking  *models.Booking `json:"booking"`
	Notified bool            `json:"notified"`
	Warning  string          `json:"warning,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// writeOutcome reports a status change. A failed email is a warning; a
// failed write after a sent email is reported so the operator knows the
// guest heard something the store does not say.
func (s *Server) writeOutcome(w http.ResponseWriter, r *http.Request, out *service.Outcome, err error) {
	if err != nil {
		code, msg := statusFor(err)
		if out != nil && out.Notified && code == http.StatusInternalServerError {
			s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("guest emailed but status not saved")
			writeJSON(w, code, map[string]any{"error": msg, "notified": true})
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	resp := outcomeResponse{Booking: out.Booking, Notified: out.Notified, Message: out.Message}
	if out.NotifyErr != nil {
		resp.Warning = "status updated but the guest email failed: " + out.NotifyErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	out, err := s.deps.Bookings.Confirm(r.Context(), id, s.actor(r))
	s.writeOutcome(w, r, out, err)
}

func (s *Server) handlePreviewRejection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	reason, err := models.ParseRejectionReason(r.URL.Query().Get("reason"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	preview, err := s.deps.Bookings.PreviewRejection(r.Context(), id, reason)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reason, err := models.ParseRejectionReason(req.Reason)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.deps.Bookings.Reject(r.Context(), id, reason, s.actor(r))
	s.writeOutcome(w, r, out, err)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	out, err := s.deps.Bookings.Undo(r.Context(), id, s.actor(r))
	s.writeOutcome(w, r, out, err)
}

func (s *Server) handleAdminMenu(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Menu.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "categories": models.MenuCategories})
}

func decodeMenuItem(w http.ResponseWriter, r *http.Request) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Server) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := decodeMenuItem(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.deps.Menu.Create(r.Context(), item); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid menu item id")
		return
	}
	item, err := decodeMenuItem(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item.ID = id
	if err := s.deps.Menu.Update(r.Context(), item); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleMenuAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid menu item id")
		return
	}
	var req struct {
		IsAvailable *bool `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsAvailable == nil {
		writeError(w, http.StatusBadRequest, "is_available is required")
		return
	}
	if err := s.deps.Menu.SetAvailability(r.Context(), id, *req.IsAvailable); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_available": *req.IsAvailable})
}

func (s *Server) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid menu item id")
		return
	}
	if err := s.deps.Menu.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFullSync queues a rewrite of the spreadsheet mirror. The range
// defaults to three months back through one year ahead.
func (s *Server) handleFullSync(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sync == nil {
		writeError(w, http.StatusServiceUnavailable, "spreadsheet sync is not configured")
		return
	}

	today := clock.Today(s.deps.Clock)
	start, end := today.AddDate(0, -3, 0), today.AddDate(1, 0, 0)
	q := r.URL.Query()
	if q.Has("from") {
		t, err := models.ParseDate(q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		start = t
	}
	if q.Has("to") {
		t, err := models.ParseDate(q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		end = t
	}

	if err := s.deps.Sync.EnqueueFullSync(r.Context(), start, end); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info().Str("by", s.actor(r)).Str("from", start.Format(models.DateLayout)).Str("to", end.Format(models.DateLayout)).Msg("full sheets sync queued")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"from": start.Format(models.DateLayout),
		"to":   end.Format(models.DateLayout),
	})
}
