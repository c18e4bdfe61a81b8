package notification

import (
	"testing"
	"time"

	"bamboowoods/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func janeDoe() *models.Booking {
	return &models.Booking{
		ID:     1,
		Name:   "Jane Doe",
		Email:  "jane@x.com",
		Date:   time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Guests: 4,
	}
}

func TestRejectionMessage_FullyBooked(t *testing.T) {
	got := RejectionMessage(models.ReasonFullyBooked, janeDoe())
	assert.Equal(t, "Dear Jane Doe, thank you for choosing Bamboo Woods. Unfortunately, we are fully booked for 12/1/2025. "+
		"We sincerely apologize and hope to host you another time.", got)
}

func TestRejectionMessage_OtherReasonsOmitDate(t *testing.T) {
	for _, reason := range []models.RejectionReason{models.ReasonClosed, models.ReasonOther} {
		got := RejectionMessage(reason, janeDoe())
		assert.Equal(t, "Dear Jane Doe, unfortunately we cannot fulfill your reservation request at this time.", got)
		assert.NotContains(t, got, "12/1/2025")
		assert.NotContains(t, got, "2025")
	}
}

func TestRejectionMessage_AlwaysNamesGuest(t *testing.T) {
	b := janeDoe()
	b.Name = "Wanjiku Mwangi"
	for _, reason := range []models.RejectionReason{models.ReasonFullyBooked, models.ReasonClosed, models.ReasonOther} {
		assert.Contains(t, RejectionMessage(reason, b), "Wanjiku Mwangi")
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Kind
		wantErr error
	}{
		{
			name: "confirmation",
			body: `{"type":"confirmation","booking":{"name":"Jane","email":"jane@x.com","date":"2025-12-01","guests":4}}`,
			want: KindConfirmation,
		},
		{
			name: "rejection",
			body: `{"type":"rejection","booking":{"name":"Jane","email":"jane@x.com","date":"2025-12-01","guests":4},"message":"Sorry"}`,
			want: KindRejection,
		},
		{
			name:    "unknown type",
			body:    `{"type":"reminder","booking":{"email":"jane@x.com"}}`,
			wantErr: ErrUnknownType,
		},
		{
			name:    "missing type",
			body:    `{"booking":{"email":"jane@x.com"}}`,
			wantErr: ErrUnknownType,
		},
		{
			name:    "rejection without message",
			body:    `{"type":"rejection","booking":{"email":"jane@x.com"}}`,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "missing email",
			body:    `{"type":"confirmation","booking":{"name":"Jane"}}`,
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "malformed json",
			body:    `{"type":`,
			wantErr: ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseRequest([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, msg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.Kind())
			assert.Equal(t, "jane@x.com", msg.Recipient().Email)
		})
	}
}

func TestRecipientLocaleDate(t *testing.T) {
	assert.Equal(t, "12/1/2025", Recipient{Date: "2025-12-01"}.LocaleDate())
	assert.Equal(t, "3/9/2026", Recipient{Date: "2026-03-09T00:00:00Z"}.LocaleDate())
	assert.Equal(t, "next friday", Recipient{Date: "next friday"}.LocaleDate())
	assert.Equal(t, Recipient{Name: "Jane Doe", Email: "jane@x.com", Date: "2025-12-01", Guests: 4}, NewRecipient(janeDoe()))
}
