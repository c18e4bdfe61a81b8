package service

import (
	"context"
	"fmt"

	"bamboowoods/internal/domain"
	"bamboowoods/internal/models"

	"github.com/rs/zerolog"
)

// ListParams carries the listing inputs a request actually supplied. Nil
// fields keep the value remembered for the session.
type ListParams struct {
	View   *models.ListView
	Search *string
	Page   *int
}

// DashboardService remembers each admin session's tab, view, search term
// and page, so the listing survives reloads.
type DashboardService struct {
	state    domain.StateRepository
	bookings *BookingService
	pageSize int
	logger   *zerolog.Logger
}

func NewDashboardService(state domain.StateRepository, bookings *BookingService, pageSize int, logger *zerolog.Logger) *DashboardService {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &DashboardService{state: state, bookings: bookings, pageSize: pageSize, logger: logger}
}

// State returns the stored state, or the initial one for a new session.
func (s *DashboardService) State(ctx context.Context, sessionID string) (*models.DashboardState, error) {
	st, err := s.state.GetDashboardState(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("dashboard state unavailable, starting fresh")
		st = nil
	}
	if st == nil {
		st = &models.DashboardState{
			SessionID: sessionID,
			Tab:       models.TabBookings,
			View:      models.ViewUpcoming,
			Page:      1,
		}
	}
	return st, nil
}

func (s *DashboardService) SelectTab(ctx context.Context, sessionID, tab string) (*models.DashboardState, error) {
	if tab != models.TabBookings && tab != models.TabMenu {
		return nil, validationf("unknown tab %q", tab)
	}
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st.Tab = tab
	s.save(ctx, st)
	return st, nil
}

// Bookings applies params to the session state and fetches the page it
// points at. A changed search term or view always lands on page 1, even
// when a page was also requested.
func (s *DashboardService) Bookings(ctx context.Context, sessionID string, params ListParams) (*models.BookingPage, *models.DashboardState, error) {
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	st.Tab = models.TabBookings
	if params.Page != nil {
		if *params.Page < 1 {
			return nil, nil, validationf("page must be at least 1")
		}
		st.Page = *params.Page
	}
	if params.View != nil {
		st.ApplyView(*params.View)
	}
	if params.Search != nil {
		st.ApplySearch(*params.Search)
	}
	if st.View == "" {
		st.View = models.ViewUpcoming
	}

	s.save(ctx, st)

	page, err := s.bookings.List(ctx, st.Query(s.pageSize))
	if err != nil {
		return nil, nil, fmt.Errorf("dashboard bookings: %w", err)
	}
	return page, st, nil
}

func (s *DashboardService) save(ctx context.Context, st *models.DashboardState) {
	if err := s.state.SaveDashboardState(ctx, st); err != nil {
		s.logger.Warn().Err(err).Msg("failed to save dashboard state")
	}
}
