package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bamboowoods/internal/clock"
	"bamboowoods/internal/database"
	"bamboowoods/internal/events"
	"bamboowoods/internal/models"
	"bamboowoods/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegramSender struct {
	mock.Mock
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func toChat(id int64, contains string) interface{} {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == id && strings.Contains(msg.Text, contains)
	})
}

func payload() events.BookingEventPayload {
	return events.BookingEventPayload{
		BookingID: 42,
		Name:      "Jane Doe",
		Email:     "jane@x.com",
		Type:      "Wedding",
		Date:      "2025-12-01",
		Guests:    80,
		Status:    models.StatusPending,
	}
}

func TestNewInquiryText(t *testing.T) {
	text := NewInquiryText(payload())
	assert.Contains(t, text, "🎉 Event: Wedding")
	assert.Contains(t, text, "📅 Date: 12/1/2025")
	assert.Contains(t, text, "📱 Phone: -")
	assert.Contains(t, text, "🆔 Booking ID: 42")
	assert.NotContains(t, text, "Message:")
}

func TestStatusChangeText(t *testing.T) {
	p := payload()
	p.Status = models.StatusCancelled
	p.ChangedBy = "owner@bw.test"
	assert.Equal(t, "❌ Booking #42 for Jane Doe on 12/1/2025 is now cancelled (guest NOT emailed)\nby owner@bw.test",
		StatusChangeText(p))

	p.Status = models.StatusConfirmed
	p.Notified = true
	p.ChangedBy = ""
	assert.Equal(t, "✅ Booking #42 for Jane Doe on 12/1/2025 is now confirmed (guest emailed)", StatusChangeText(p))
}

func TestAlerterSubscribe(t *testing.T) {
	sender := new(mockTelegramSender)
	alerter := NewAlerter(sender, []int64{100, 200}, nil)
	bus := events.NewEventBus(nil)
	alerter.Subscribe(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go alerter.Run(ctx)

	delivered := make(chan int64, 4)
	record := func(args mock.Arguments) { delivered <- args.Get(0).(tgbotapi.MessageConfig).ChatID }
	sender.On("Send", toChat(100, "New booking inquiry")).Return(tgbotapi.Message{}, nil).Run(record).Once()
	sender.On("Send", toChat(200, "New booking inquiry")).Return(tgbotapi.Message{}, nil).Run(record).Once()
	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, payload()))

	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(2 * time.Second):
			t.Fatalf("alert %d was not delivered", i+1)
		}
	}
	sender.AssertExpectations(t)

	// reopened bookings are not announced
	require.NoError(t, bus.PublishJSON(events.EventBookingReopened, payload()))
	assert.Empty(t, alerter.queue)
}

// blockingSender holds every send until release is closed.
type blockingSender struct {
	release chan struct{}
}

func (b *blockingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	<-b.release
	return tgbotapi.Message{}, nil
}

func TestSubmitDoesNotWaitForTelegram(t *testing.T) {
	db, err := database.NewDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sender := &blockingSender{release: make(chan struct{})}
	defer close(sender.release)
	alerter := NewAlerter(sender, []int64{100, 200}, nil)
	bus := events.NewEventBus(nil)
	alerter.Subscribe(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go alerter.Run(ctx)

	today := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	bookings := service.NewBookingService(db, nil, bus, nil, clock.NewFixed(today), 10, nil)
	inquiry := models.Inquiry{Name: "Jane Doe", Email: "jane@x.com", Type: "Wedding", Date: "2025-12-01", Guests: 80}

	start := time.Now()
	for i := 0; i < alertQueueSize+3; i++ {
		_, err := bookings.Submit(ctx, inquiry)
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), time.Second, "inquiries must not wait on chat delivery")
	// one alert is held by the blocked send, the overflow is dropped
	assert.InDelta(t, alertQueueSize, len(alerter.queue), 1)
}

func TestBroadcastPartialFailure(t *testing.T) {
	sender := new(mockTelegramSender)
	alerter := NewAlerter(sender, []int64{100, 200}, nil)

	sender.On("Send", toChat(100, "")).Return(tgbotapi.Message{}, errors.New("chat not found")).Once()
	sender.On("Send", toChat(200, "")).Return(tgbotapi.Message{}, nil).Once()
	assert.NoError(t, alerter.Broadcast("hello"))

	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("blocked"))
	assert.Error(t, alerter.Broadcast("hello"))
}

func TestBroadcastWithoutChats(t *testing.T) {
	sender := new(mockTelegramSender)
	assert.NoError(t, NewAlerter(sender, nil, nil).Broadcast("hello"))
	sender.AssertNotCalled(t, "Send", mock.Anything)
}
