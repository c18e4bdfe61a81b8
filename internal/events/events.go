package events

import (
	"encoding/json"
	"sync"
	"time"

	"bamboowoods/internal/models"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingReopened  = "booking_reopened"
)

// BookingEventPayload is the booking snapshot handed to subscribers.
type BookingEventPayload struct {
	BookingID int64         `json:"booking_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Type      string        `json:"type,omitempty"`
	Date      string        `json:"date"`
	Guests    int           `json:"guests"`
	Message   string        `json:"message,omitempty"`
	Status    models.Status `json:"status"`
	ChangedBy string        `json:"changed_by,omitempty"`
	Notified  bool          `json:"notified"`
}

// NewBookingPayload snapshots b. changedBy is the operator email, empty for
// public submissions.
func NewBookingPayload(b *models.Booking, changedBy string) BookingEventPayload {
	return BookingEventPayload{
		BookingID: b.ID,
		Name:      b.Name,
		Email:     b.Email,
		Phone:     b.Phone,
		Type:      b.Type,
		Date:      b.DateString(),
		Guests:    b.Guests,
		Message:   b.Message,
		Status:    b.Status,
		ChangedBy: changedBy,
	}
}

type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into dst.
func (e *Event) Decode(dst any) error {
	return json.Unmarshal(e.Payload, dst)
}

type EventHandler func(event *Event) error

// EventBus is an in-process pub/sub. Handlers run synchronously in
// subscription order; a failing handler does not stop the others.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish delivers the event and returns how many handlers failed.
func (b *EventBus) Publish(event *Event) int {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	failed := 0
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			failed++
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
		}
	}
	return failed
}

func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
