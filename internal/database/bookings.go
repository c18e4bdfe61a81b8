package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bamboowoods/internal/models"
)

const bookingColumns = `id, name, email, phone, type, date, guests, message, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b       models.Booking
		dateStr string
		status  string
	)
	err := row.Scan(
		&b.ID, &b.Name, &b.Email, &b.Phone, &b.Type, &dateStr, &b.Guests,
		&b.Message, &status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Status = models.Status(status)
	b.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return &b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	if !booking.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, booking.Status)
	}

	query := `INSERT INTO bookings (
				name, email, phone, type, date, guests, message, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	id, err := db.insert(ctx, query,
		booking.Name,
		booking.Email,
		booking.Phone,
		booking.Type,
		booking.DateString(),
		booking.Guests,
		booking.Message,
		string(booking.Status),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.queryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// UpdateBookingStatus writes the status unconditionally; any value of the
// closed set may replace any other.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}

	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.exec(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return affectedOrNotFound(result)
}

// ListBookings returns one page of bookings for the view together with the
// total number of matching rows. today splits upcoming from history.
func (db *DB) ListBookings(ctx context.Context, q models.BookingQuery, today time.Time) ([]*models.Booking, int, error) {
	var (
		where []string
		args  []any
	)

	todayStr := today.Format(models.DateLayout)
	order := "date ASC, id ASC"
	switch q.View {
	case models.ViewHistory:
		where = append(where, "date < ?")
		order = "date DESC, id DESC"
	default:
		where = append(where, "date >= ?")
	}
	args = append(args, todayStr)

	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		where = append(where, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := db.queryRow(ctx, `SELECT COUNT(*) FROM bookings`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	q.PageSize = pageSize

	query := `SELECT ` + bookingColumns + ` FROM bookings` + clause +
		` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	rows, err := db.query(ctx, query, append(args, pageSize, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// GetBookingsByDateRange returns bookings whose date falls within
// [startDate, endDate], ordered by date.
func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE date >= ? AND date <= ? ORDER BY date ASC, id ASC`
	rows, err := db.query(ctx, query, startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
