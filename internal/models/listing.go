package models

import (
	"fmt"
	"strings"
)

type ListView string

const (
	ViewUpcoming ListView = "upcoming"
	ViewHistory  ListView = "history"
)

func ParseListView(raw string) (ListView, error) {
	switch v := ListView(strings.ToLower(strings.TrimSpace(raw))); v {
	case "":
		return ViewUpcoming, nil
	case ViewUpcoming, ViewHistory:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", raw)
	}
}

type BookingQuery struct {
	View     ListView
	Search   string
	Page     int
	PageSize int
}

// Offset returns the row offset for the 1-based page.
func (q BookingQuery) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.PageSize
}

type BookingPage struct {
	Items      []*Booking `json:"items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	Total      int        `json:"total"`
	TotalPages int        `json:"total_pages"`
}

const (
	TabBookings = "bookings"
	TabMenu     = "menu"
)

// DashboardState is the per-session view of the admin dashboard.
type DashboardState struct {
	SessionID string   `json:"session_id"`
	Tab       string   `json:"tab"`
	View      ListView `json:"view"`
	Search    string   `json:"search"`
	Page      int      `json:"page"`
}

// ApplySearch records the search term. A changed term always sends the
// listing back to the first page.
func (s *DashboardState) ApplySearch(term string) {
	if term != s.Search {
		s.Search = term
		s.Page = 1
	}
}

// ApplyView switches between upcoming and history, restarting paging.
func (s *DashboardState) ApplyView(view ListView) {
	if view != s.View {
		s.View = view
		s.Page = 1
	}
}

func (s *DashboardState) Query(pageSize int) BookingQuery {
	page := s.Page
	if page < 1 {
		page = 1
	}
	return BookingQuery{View: s.View, Search: s.Search, Page: page, PageSize: pageSize}
}
