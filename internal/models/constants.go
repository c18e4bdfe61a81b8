package models

import (
	"fmt"
	"time"
)

// DateLayout is how booking dates are stored and exchanged.
const DateLayout = "2006-01-02"

const (
	// DefaultPageSize is the admin bookings table page size.
	DefaultPageSize = 10

	// DefaultSessionTTL is how long an admin session stays valid.
	DefaultSessionTTL = 12 * time.Hour

	// DashboardStateTTL bounds how long per-session dashboard state is kept.
	DashboardStateTTL = 24 * time.Hour

	// WorkerQueueSize is the in-memory sync queue capacity.
	WorkerQueueSize = 128

	// ReviewsCacheTTL is the default lifetime of a cached place details payload.
	ReviewsCacheTTL = 30 * time.Minute
)

const (
	TaskStatusPending    = "pending"
	TaskStatusRetry      = "retry"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// FormatLocaleDate renders a date the way an en-US browser's
// toLocaleDateString does, e.g. 12/1/2025.
func FormatLocaleDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// ParseDate accepts YYYY-MM-DD or a full RFC3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
