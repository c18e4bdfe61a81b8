package domain

import (
	"context"
	"encoding/json"
	"time"

	"bamboowoods/internal/models"
	"bamboowoods/internal/notification"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status models.Status) error
	ListBookings(ctx context.Context, q models.BookingQuery, today time.Time) ([]*models.Booking, int, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

type MenuRepository interface {
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context, onlyAvailable bool) ([]*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	SetMenuItemAvailability(ctx context.Context, id int64, available bool) error
	DeleteMenuItem(ctx context.Context, id int64) error
}

type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	UpdateAdminPassword(ctx context.Context, id int64, passwordHash string) error
}

type SyncQueueRepository interface {
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	ClaimSyncTask(ctx context.Context, id int64) (*models.SyncTask, error)
	ReleaseSyncTasks(ctx context.Context) (int64, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// StateRepository keeps short-lived per-session data: admin sessions,
// dashboard state and rate limit counters.
type StateRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
	GetDashboardState(ctx context.Context, sessionID string) (*models.DashboardState, error)
	SaveDashboardState(ctx context.Context, state *models.DashboardState) error
	ClearDashboardState(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Notifier delivers a booking email and returns the provider's raw reply.
type Notifier interface {
	Notify(ctx context.Context, msg notification.Message) (json.RawMessage, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status models.Status) error
	ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status models.Status) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
