// Package notification sends the booking emails: a closed set of message
// kinds rendered from fixed templates and delivered through the
// transactional email provider.
package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bamboowoods/internal/models"
)

var (
	ErrUnknownType    = errors.New("unknown notification type")
	ErrInvalidRequest = errors.New("invalid notification request")
)

type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindRejection    Kind = "rejection"
)

// Recipient carries the booking fields the templates use. Date is kept as
// received (YYYY-MM-DD or RFC3339).
type Recipient struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Date   string `json:"date"`
	Guests int    `json:"guests"`
}

func NewRecipient(b *models.Booking) Recipient {
	return Recipient{Name: b.Name, Email: b.Email, Date: b.DateString(), Guests: b.Guests}
}

// LocaleDate renders Date as M/D/YYYY, or returns it untouched when it
// cannot be parsed.
func (r Recipient) LocaleDate() string {
	t, err := models.ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		return r.Date
	}
	return models.FormatLocaleDate(t)
}

// Message is implemented only by Confirmation and Rejection.
type Message interface {
	Kind() Kind
	Recipient() Recipient
	validate() error
}

type Confirmation struct {
	Booking Recipient
}

func (c Confirmation) Kind() Kind           { return KindConfirmation }
func (c Confirmation) Recipient() Recipient { return c.Booking }

func (c Confirmation) validate() error {
	return validateRecipient(c.Booking)
}

type Rejection struct {
	Booking Recipient
	Text    string
}

func (r Rejection) Kind() Kind           { return KindRejection }
func (r Rejection) Recipient() Recipient { return r.Booking }

func (r Rejection) validate() error {
	if err := validateRecipient(r.Booking); err != nil {
		return err
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: rejection message is required", ErrInvalidRequest)
	}
	return nil
}

func validateRecipient(r Recipient) error {
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: booking email is required", ErrInvalidRequest)
	}
	return nil
}

// Validate checks msg before it is rendered.
func Validate(msg Message) error {
	if msg == nil {
		return fmt.Errorf("%w: empty message", ErrInvalidRequest)
	}
	return msg.validate()
}

// Request is the wire shape accepted by the notification endpoint.
type Request struct {
	Type    string    `json:"type"`
	Booking Recipient `json:"booking"`
	Message string    `json:"message,omitempty"`
}

// ParseRequest decodes a request body into a validated Message.
func ParseRequest(body []byte) (Message, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return req.ToMessage()
}

// ToMessage converts the wire request into its Message variant.
func (req Request) ToMessage() (Message, error) {
	var msg Message
	switch Kind(req.Type) {
	case KindConfirmation:
		msg = Confirmation{Booking: req.Booking}
	case KindRejection:
		msg = Rejection{Booking: req.Booking, Text: req.Message}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, req.Type)
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// RejectionMessage builds the decline text for reason. Only fully_booked
// mentions the date.
func RejectionMessage(reason models.RejectionReason, b *models.Booking) string {
	if reason == models.ReasonFullyBooked {
		return fmt.Sprintf("Dear %s, thank you for choosing Bamboo Woods. Unfortunately, we are fully booked for %s. "+
			"We sincerely apologize and hope to host you another time.", b.Name, models.FormatLocaleDate(b.Date))
	}
	return fmt.Sprintf("Dear %s, unfortunately we cannot fulfill your reservation request at this time.", b.Name)
}
