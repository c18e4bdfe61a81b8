package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Confirmation(t *testing.T) {
	r := NewRenderer("Bamboo Woods <onboarding@resend.dev>", "Nakuru-Marigat Road")

	email, err := r.Render(Confirmation{Booking: NewRecipient(janeDoe())})
	require.NoError(t, err)

	assert.Equal(t, "Bamboo Woods <onboarding@resend.dev>", email.From)
	assert.Equal(t, []string{"jane@x.com"}, email.To)
	assert.Equal(t, "Booking Confirmed! ✅ - Bamboo Woods", email.Subject)
	assert.Contains(t, email.HTML, "<h1>Booking Confirmed!</h1>")
	assert.Contains(t, email.HTML, "Dear Jane Doe,")
	assert.Contains(t, email.HTML, "<strong>4 people</strong>")
	assert.Contains(t, email.HTML, "<strong>12/1/2025</strong>")
	assert.Contains(t, email.HTML, "Location: Nakuru-Marigat Road")
	assert.NotContains(t, email.HTML, "Reservation Update")
}

func TestRender_Rejection(t *testing.T) {
	r := NewRenderer("Bamboo Woods <onboarding@resend.dev>", "Nakuru-Marigat Road")

	email, err := r.Render(Rejection{Booking: NewRecipient(janeDoe()), Text: "We are closed that day."})
	require.NoError(t, err)

	assert.Equal(t, "Update regarding your reservation", email.Subject)
	assert.Contains(t, email.HTML, "<h2>Reservation Update</h2>")
	assert.Contains(t, email.HTML, "<p>We are closed that day.</p>")
	assert.NotContains(t, email.HTML, "Booking Confirmed")
	assert.NotContains(t, email.HTML, "Location:")
}

func TestRender_EscapesInput(t *testing.T) {
	r := NewRenderer("a@b.c", "Venue")
	rec := NewRecipient(janeDoe())
	rec.Name = `<script>alert("x")</script>`

	email, err := r.Render(Rejection{Booking: rec, Text: "<b>sorry</b>"})
	require.NoError(t, err)
	assert.NotContains(t, email.HTML, "<script>")
	assert.Contains(t, email.HTML, "&lt;b&gt;sorry&lt;/b&gt;")
}

func TestRender_Invalid(t *testing.T) {
	r := NewRenderer("a@b.c", "Venue")

	_, err := r.Render(nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = r.Render(Rejection{Booking: NewRecipient(janeDoe())})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
