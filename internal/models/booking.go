package models

import "time"

// Status is the lifecycle state of a booking. The store accepts any
// transition between the three values.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Type      string    `json:"type"`
	Date      time.Time `json:"date"`
	Guests    int       `json:"guests"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
}

// DateString returns the calendar date in storage form (YYYY-MM-DD).
func (b *Booking) DateString() string {
	return b.Date.Format(DateLayout)
}

// Inquiry is what the public intake form submits.
type Inquiry struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Type    string `json:"type"`
	Date    string `json:"date"`
	Guests  int    `json:"guests"`
	Message string `json:"message"`
}

// EventTypes are the options offered by the intake form. Free text is
// accepted as well.
var EventTypes = []string{
	"Wedding",
	"Birthday Party",
	"Baby Shower",
	"Corporate Event",
	"Graduation Party",
	"Private Function",
	"Other",
}
