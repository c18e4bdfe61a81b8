package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bamboowoods/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedBooking(t *testing.T, db *DB, name, phone string, date time.Time) *models.Booking {
	t.Helper()
	b := &models.Booking{
		Name:   name,
		Email:  "guest@example.com",
		Phone:  phone,
		Type:   "Wedding",
		Date:   date,
		Guests: 40,
	}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := seedBooking(t, db, "Jane Wanjiru", "0712345678", day(2025, 12, 1))
	assert.NotZero(t, b.ID)
	assert.Equal(t, models.StatusPending, b.Status)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Wanjiru", got.Name)
	assert.Equal(t, "2025-12-01", got.DateString())
	assert.Equal(t, 40, got.Guests)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestCreateBooking_InvalidStatus(t *testing.T) {
	db := setupTestDB(t)
	err := db.CreateBooking(context.Background(), &models.Booking{Name: "x", Email: "x@y", Date: day(2025, 1, 1), Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetBooking(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	b := seedBooking(t, db, "Otieno", "0700000000", day(2025, 12, 1))

	for _, status := range []models.Status{models.StatusConfirmed, models.StatusPending, models.StatusCancelled, models.StatusConfirmed} {
		require.NoError(t, db.UpdateBookingStatus(ctx, b.ID, status))
		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	assert.ErrorIs(t, db.UpdateBookingStatus(ctx, 999, models.StatusConfirmed), ErrNotFound)
	assert.ErrorIs(t, db.UpdateBookingStatus(ctx, b.ID, "done"), ErrInvalidInput)
}

func TestListBookings_Views(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	today := day(2025, 6, 15)

	seedBooking(t, db, "Past One", "1", day(2025, 6, 1))
	seedBooking(t, db, "Past Two", "2", day(2025, 6, 14))
	seedBooking(t, db, "Today", "3", today)
	seedBooking(t, db, "Later", "4", day(2025, 7, 1))
	seedBooking(t, db, "Soon", "5", day(2025, 6, 20))

	upcoming, total, err := db.ListBookings(ctx, models.BookingQuery{View: models.ViewUpcoming, Page: 1, PageSize: 10}, today)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, upcoming, 3)
	assert.Equal(t, []string{"Today", "Soon", "Later"}, names(upcoming))

	history, total, err := db.ListBookings(ctx, models.BookingQuery{View: models.ViewHistory, Page: 1, PageSize: 10}, today)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"Past Two", "Past One"}, names(history))
}

func TestListBookings_Search(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	today := day(2025, 6, 15)

	seedBooking(t, db, "Mary Njeri", "0711111111", day(2025, 6, 20))
	seedBooking(t, db, "Peter Kamau", "0722222222", day(2025, 6, 21))
	seedBooking(t, db, "100% Club", "0733333333", day(2025, 6, 22))

	tests := []struct {
		term string
		want []string
	}{
		{term: "mary", want: []string{"Mary Njeri"}},
		{term: "KAMAU", want: []string{"Peter Kamau"}},
		{term: "07222", want: []string{"Peter Kamau"}},
		{term: "%", want: []string{"100% Club"}},
		{term: "  ", want: []string{"Mary Njeri", "Peter Kamau", "100% Club"}},
		{term: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, total, err := db.ListBookings(ctx, models.BookingQuery{Search: tt.term, Page: 1, PageSize: 10}, today)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), total)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestListBookings_Pagination(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	today := day(2025, 1, 1)

	for i := 1; i <= 23; i++ {
		seedBooking(t, db, fmt.Sprintf("Guest %02d", i), "", today.AddDate(0, 0, i))
	}

	page1, total, err := db.ListBookings(ctx, models.BookingQuery{Page: 1, PageSize: 10}, today)
	require.NoError(t, err)
	assert.Equal(t, 23, total)
	assert.Len(t, page1, 10)
	assert.Equal(t, "Guest 01", page1[0].Name)

	page3, _, err := db.ListBookings(ctx, models.BookingQuery{Page: 3, PageSize: 10}, today)
	require.NoError(t, err)
	assert.Len(t, page3, 3)
	assert.Equal(t, "Guest 21", page3[0].Name)

	beyond, total, err := db.ListBookings(ctx, models.BookingQuery{Page: 9, PageSize: 10}, today)
	require.NoError(t, err)
	assert.Equal(t, 23, total)
	assert.Empty(t, beyond)
}

func TestGetBookingsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seedBooking(t, db, "A", "", day(2025, 3, 1))
	seedBooking(t, db, "B", "", day(2025, 3, 10))
	seedBooking(t, db, "C", "", day(2025, 4, 1))

	got, err := db.GetBookingsByDateRange(ctx, day(2025, 3, 1), day(2025, 3, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(got))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}

func names(bookings []*models.Booking) []string {
	out := make([]string, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Name)
	}
	return out
}
