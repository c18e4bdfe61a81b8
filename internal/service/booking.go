package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"bamboowoods/internal/clock"
	"bamboowoods/internal/domain"
	"bamboowoods/internal/events"
	"bamboowoods/internal/metrics"
	"bamboowoods/internal/models"
	"bamboowoods/internal/notification"
	"bamboowoods/internal/worker"

	"github.com/rs/zerolog"
)

const (
	SyncTaskUpsert       = worker.TaskUpsert
	SyncTaskUpdateStatus = worker.TaskUpdateStatus

	exportPageSize = 500
)

// Outcome reports a status change. NotifyErr is a warning: the status was
// written even when the email failed.
type Outcome struct {
	Booking   *models.Booking
	Notified  bool
	NotifyErr error
	Message   string
}

type RejectionPreview struct {
	Booking *models.Booking        `json:"booking"`
	Reason  models.RejectionReason `json:"reason"`
	Message string                 `json:"message"`
}

type BookingService struct {
	repo     domain.BookingRepository
	notifier domain.Notifier
	eventBus domain.EventPublisher
	syncer   domain.SyncWorker
	clock    clock.Clock
	pageSize int
	logger   *zerolog.Logger
}

func NewBookingService(
	repo domain.BookingRepository,
	notifier domain.Notifier,
	eventBus domain.EventPublisher,
	syncer domain.SyncWorker,
	clk clock.Clock,
	pageSize int,
	logger *zerolog.Logger,
) *BookingService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:     repo,
		notifier: notifier,
		eventBus: eventBus,
		syncer:   syncer,
		clock:    clk,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Submit validates a public inquiry and stores it as pending.
func (s *BookingService) Submit(ctx context.Context, in models.Inquiry) (*models.Booking, error) {
	booking, err := s.validateInquiry(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, storeErr("create booking", err)
	}

	s.logger.Info().Int64("booking_id", booking.ID).Str("date", booking.DateString()).Msg("inquiry received")
	s.publish(events.EventBookingCreated, booking, "", false)
	s.enqueueSync(ctx, booking, SyncTaskUpsert)
	return booking, nil
}

func (s *BookingService) validateInquiry(in models.Inquiry) (*models.Booking, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	eventType := strings.TrimSpace(in.Type)
	rawDate := strings.TrimSpace(in.Date)

	if name == "" || email == "" || eventType == "" || rawDate == "" {
		return nil, validationf("please fill in all required fields")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, validationf("invalid email address %q", email)
	}
	date, err := models.ParseDate(rawDate)
	if err != nil {
		return nil, validationf("%v", err)
	}
	if date.Before(clock.Today(s.clock)) {
		return nil, validationf("date %s is in the past", rawDate)
	}
	if in.Guests < 0 {
		return nil, validationf("guests must not be negative")
	}

	return &models.Booking{
		Name:    name,
		Email:   email,
		Phone:   strings.TrimSpace(in.Phone),
		Type:    eventType,
		Date:    date,
		Guests:  in.Guests,
		Message: strings.TrimSpace(in.Message),
		Status:  models.StatusPending,
	}, nil
}

func (s *BookingService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, storeErr("get booking", err)
	}
	return b, nil
}

// Confirm emails the guest, then writes confirmed. A failed email does not
// stop the write.
func (s *BookingService) Confirm(ctx context.Context, id int64, actor string) (*Outcome, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	notified, notifyErr := s.notify(ctx, notification.Confirmation{Booking: notification.NewRecipient(booking)}, id)
	return s.transition(ctx, booking, models.StatusConfirmed, actor, notified, notifyErr, "")
}

// PreviewRejection returns the message Reject would send. Nothing is
// written or sent.
func (s *BookingService) PreviewRejection(ctx context.Context, id int64, reason models.RejectionReason) (*RejectionPreview, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RejectionPreview{
		Booking: booking,
		Reason:  reason,
		Message: notification.RejectionMessage(reason, booking),
	}, nil
}

// Reject emails the generated decline and writes cancelled whatever the
// email outcome.
func (s *BookingService) Reject(ctx context.Context, id int64, reason models.RejectionReason, actor string) (*Outcome, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	text := notification.RejectionMessage(reason, booking)
	notified, notifyErr := s.notify(ctx, notification.Rejection{Booking: notification.NewRecipient(booking), Text: text}, id)
	return s.transition(ctx, booking, models.StatusCancelled, actor, notified, notifyErr, text)
}

// Undo puts the booking back to pending. The guest is not emailed.
func (s *BookingService) Undo(ctx context.Context, id int64, actor string) (*Outcome, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, booking, models.StatusPending, actor, false, nil, "")
}

func (s *BookingService) notify(ctx context.Context, msg notification.Message, id int64) (bool, error) {
	if s.notifier == nil {
		return false, nil
	}
	if _, err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", id).Str("kind", string(msg.Kind())).
			Msg("booking email failed, continuing with status change")
		return false, err
	}
	return true, nil
}

func (s *BookingService) transition(
	ctx context.Context,
	booking *models.Booking,
	status models.Status,
	actor string,
	notified bool,
	notifyErr error,
	text string,
) (*Outcome, error) {
	outcome := &Outcome{Notified: notified, NotifyErr: notifyErr, Message: text}

	if err := s.repo.UpdateBookingStatus(ctx, booking.ID, status); err != nil {
		if notified {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("status", string(status)).
				Msg("guest was emailed but the status was not saved")
		}
		return outcome, storeErr("update booking status", err)
	}
	metrics.IncBookingTransition(string(status))

	fresh, err := s.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("re-read after status change failed")
		copied := *booking
		copied.Status = status
		fresh = &copied
	}
	outcome.Booking = fresh

	s.logger.Info().
		Int64("booking_id", fresh.ID).
		Str("status", string(status)).
		Str("actor", actor).
		Bool("notified", notified).
		Msg("booking status changed")

	s.publish(eventFor(status), fresh, actor, notified)
	s.enqueueSync(ctx, fresh, SyncTaskUpdateStatus)
	return outcome, nil
}

func eventFor(status models.Status) string {
	switch status {
	case models.StatusConfirmed:
		return events.EventBookingConfirmed
	case models.StatusCancelled:
		return events.EventBookingCancelled
	default:
		return events.EventBookingReopened
	}
}

// List returns one page of the upcoming or history view.
func (s *BookingService) List(ctx context.Context, q models.BookingQuery) (*models.BookingPage, error) {
	if q.PageSize <= 0 {
		q.PageSize = s.pageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.View == "" {
		q.View = models.ViewUpcoming
	}

	items, total, err := s.repo.ListBookings(ctx, q, clock.Today(s.clock))
	if err != nil {
		return nil, storeErr("list bookings", err)
	}

	return &models.BookingPage{
		Items:      items,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: (total + q.PageSize - 1) / q.PageSize,
	}, nil
}

// Export walks every page of the view and returns all matching bookings.
func (s *BookingService) Export(ctx context.Context, view models.ListView, search string) ([]*models.Booking, error) {
	var all []*models.Booking
	q := models.BookingQuery{View: view, Search: search, Page: 1, PageSize: exportPageSize}
	for {
		page, err := s.List(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if q.Page >= page.TotalPages {
			return all, nil
		}
		q.Page++
	}
}

// Range returns bookings dated within [start, end].
func (s *BookingService) Range(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	bookings, err := s.repo.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return nil, storeErr("bookings by range", err)
	}
	return bookings, nil
}

func (s *BookingService) publish(eventType string, b *models.Booking, actor string, notified bool) {
	if s.eventBus == nil {
		return
	}
	payload := events.NewBookingPayload(b, actor)
	payload.Notified = notified
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, b *models.Booking, taskType string) {
	if s.syncer == nil {
		return
	}
	if err := s.syncer.EnqueueTask(ctx, taskType, b.ID, b, b.Status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", b.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
