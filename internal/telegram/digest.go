package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bamboowoods/internal/clock"
	"bamboowoods/internal/models"

	"github.com/rs/zerolog"
)

type BookingRanger interface {
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

// Digest sends the managers a daily list of the next day's bookings.
type Digest struct {
	alerter  *Alerter
	bookings BookingRanger
	clock    clock.Clock
	hour     int
	minute   int
	logger   *zerolog.Logger
}

// NewDigest parses at as HH:MM. An empty value means 08:00.
func NewDigest(alerter *Alerter, bookings BookingRanger, clk clock.Clock, at string, logger *zerolog.Logger) (*Digest, error) {
	hour, minute := 8, 0
	if at != "" {
		if _, err := fmt.Sscanf(at, "%d:%d", &hour, &minute); err != nil {
			return nil, fmt.Errorf("invalid digest time %q: %w", at, err)
		}
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("invalid digest time %q", at)
		}
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Digest{alerter: alerter, bookings: bookings, clock: clk, hour: hour, minute: minute, logger: logger}, nil
}

// Start blocks until ctx is cancelled, sending once a day.
func (d *Digest) Start(ctx context.Context) {
	timer := time.NewTimer(d.untilNext(d.clock.Now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := d.Send(ctx); err != nil {
				d.logger.Error().Err(err).Msg("daily digest failed")
			}
			timer.Reset(d.untilNext(d.clock.Now()))
		}
	}
}

func (d *Digest) untilNext(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// Send broadcasts tomorrow's pending and confirmed bookings.
func (d *Digest) Send(ctx context.Context) error {
	tomorrow := clock.Today(d.clock).AddDate(0, 0, 1)
	bookings, err := d.bookings.GetBookingsByDateRange(ctx, tomorrow, tomorrow)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}
	return d.alerter.Broadcast(DigestText(tomorrow, bookings))
}

func DigestText(day time.Time, bookings []*models.Booking) string {
	active := make([]*models.Booking, 0, len(bookings))
	guests := 0
	for _, b := range bookings {
		if b.Status == models.StatusCancelled {
			continue
		}
		active = append(active, b)
		guests += b.Guests
	}

	date := models.FormatLocaleDate(day)
	if len(active) == 0 {
		return "📋 No bookings for tomorrow (" + date + ")"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Tomorrow (%s): %d booking(s), %d guests\n", date, len(active), guests)
	for _, b := range active {
		icon := "⏳"
		if b.Status == models.StatusConfirmed {
			icon = "✅"
		}
		fmt.Fprintf(&sb, "\n%s #%d %s · %s · %d guests · %s", icon, b.ID, b.Name, orDash(b.Type), b.Guests, orDash(b.Phone))
	}
	return sb.String()
}
