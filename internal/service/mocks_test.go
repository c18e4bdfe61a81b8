package service

import (
	"context"
	"encoding/json"
	"time"

	"bamboowoods/internal/models"
	"bamboowoods/internal/notification"

	"github.com/stretchr/testify/mock"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) UpdateBookingStatus(ctx context.Context, id int64, s models.Status) error {
	return m.Called(ctx, id, s).Error(0)
}

func (m *mockBookingRepo) ListBookings(ctx context.Context, q models.BookingQuery, today time.Time) ([]*models.Booking, int, error) {
	args := m.Called(ctx, q, today)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Booking), args.Int(1), args.Error(2)
}

func (m *mockBookingRepo) GetBookingsByDateRange(ctx context.Context, s, e time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, msg notification.Message) (json.RawMessage, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishJSON(t string, p interface{}) error {
	return m.Called(t, p).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, tt string, id int64, b *models.Booking, s models.Status) error {
	return m.Called(ctx, tt, id, b, s).Error(0)
}
