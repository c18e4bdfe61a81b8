// Package telegram pushes booking activity to the managers' Telegram chats.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bamboowoods/internal/config"
	"bamboowoods/internal/domain"
	"bamboowoods/internal/events"
	"bamboowoods/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// NewBotSender logs in with the configured bot token.
func NewBotSender(cfg config.TelegramConfig) (domain.TelegramSender, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

// alertQueueSize bounds the alerts waiting for delivery.
const alertQueueSize = 64

var errQueueFull = errors.New("telegram alert queue is full")

// Alerter turns booking events into manager chat messages. Event handlers
// only queue the text; Run performs the sends so a slow Telegram API never
// holds up the request that raised the event.
type Alerter struct {
	bot     domain.TelegramSender
	chatIDs []int64
	queue   chan string
	logger  *zerolog.Logger
}

func NewAlerter(bot domain.TelegramSender, chatIDs []int64, logger *zerolog.Logger) *Alerter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Alerter{bot: bot, chatIDs: chatIDs, queue: make(chan string, alertQueueSize), logger: logger}
}

// Run delivers queued alerts until ctx is done.
func (a *Alerter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-a.queue:
			if err := a.Broadcast(text); err != nil {
				a.logger.Error().Err(err).Msg("telegram alert dropped")
			}
		}
	}
}

// Subscribe registers the alerter for new inquiries and status changes.
func (a *Alerter) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, a.handle)
	bus.Subscribe(events.EventBookingConfirmed, a.handle)
	bus.Subscribe(events.EventBookingCancelled, a.handle)
}

func (a *Alerter) handle(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}

	var text string
	switch event.Type {
	case events.EventBookingCreated:
		text = NewInquiryText(p)
	default:
		text = StatusChangeText(p)
	}

	select {
	case a.queue <- text:
		return nil
	default:
		a.logger.Warn().Str("event_type", event.Type).Int64("booking_id", p.BookingID).Msg("telegram alert queue full")
		return errQueueFull
	}
}

// Broadcast sends text to every manager chat. It fails only when no chat
// received it.
func (a *Alerter) Broadcast(text string) error {
	if len(a.chatIDs) == 0 {
		return nil
	}

	var errs []error
	for _, chatID := range a.chatIDs {
		if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			a.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram alert failed")
			errs = append(errs, err)
		}
	}
	if len(errs) == len(a.chatIDs) {
		return fmt.Errorf("telegram alert not delivered: %w", errors.Join(errs...))
	}
	return nil
}

func NewInquiryText(p events.BookingEventPayload) string {
	var b strings.Builder
	b.WriteString("🆕 New booking inquiry\n\n")
	fmt.Fprintf(&b, "🎉 Event: %s\n", orDash(p.Type))
	fmt.Fprintf(&b, "📅 Date: %s\n", localeDate(p.Date))
	fmt.Fprintf(&b, "👥 Guests: %d\n", p.Guests)
	fmt.Fprintf(&b, "👤 Guest: %s\n", p.Name)
	fmt.Fprintf(&b, "📱 Phone: %s\n", orDash(p.Phone))
	fmt.Fprintf(&b, "✉️ Email: %s\n", p.Email)
	if p.Message != "" {
		fmt.Fprintf(&b, "💬 Message: %s\n", p.Message)
	}
	fmt.Fprintf(&b, "🆔 Booking ID: %d", p.BookingID)
	return b.String()
}

func StatusChangeText(p events.BookingEventPayload) string {
	icon := "🔄"
	switch p.Status {
	case models.StatusConfirmed:
		icon = "✅"
	case models.StatusCancelled:
		icon = "❌"
	}

	emailed := "guest emailed"
	if !p.Notified {
		emailed = "guest NOT emailed"
	}

	text := fmt.Sprintf("%s Booking #%d for %s on %s is now %s (%s)",
		icon, p.BookingID, p.Name, localeDate(p.Date), p.Status, emailed)
	if p.ChangedBy != "" {
		text += "\nby " + p.ChangedBy
	}
	return text
}

func localeDate(raw string) string {
	t, err := models.ParseDate(raw)
	if err != nil {
		return raw
	}
	return models.FormatLocaleDate(t)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
