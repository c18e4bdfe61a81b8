package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	confirmationSubject = "Booking Confirmed! ✅ - Bamboo Woods"
	rejectionSubject    = "Update regarding your reservation"
)

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h1>Booking Confirmed!</h1>
<p>Dear {{.Name}},</p>
<p>We are delighted to confirm your reservation for <strong>{{.Guests}} people</strong> on <strong>{{.Date}}</strong>.</p>
<p>Location: {{.Location}}</p>
`))

	rejectionTmpl = template.Must(template.New("rejection").Parse(`
<h2>Reservation Update</h2>
<p>Dear {{.Name}},</p>
<p>{{.Message}}</p>
`))
)

// Email is the provider payload.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type templateData struct {
	Name     string
	Guests   int
	Date     string
	Location string
	Message  string
}

// Renderer turns a Message into an Email.
type Renderer struct {
	from     string
	location string
}

func NewRenderer(from, location string) *Renderer {
	return &Renderer{from: from, location: location}
}

func (r *Renderer) Render(msg Message) (Email, error) {
	if err := Validate(msg); err != nil {
		return Email{}, err
	}

	to := msg.Recipient()
	data := templateData{Name: to.Name}

	var (
		tmpl    *template.Template
		subject string
	)
	switch m := msg.(type) {
	case Confirmation:
		tmpl, subject = confirmationTmpl, confirmationSubject
		data.Guests = to.Guests
		data.Date = to.LocaleDate()
		data.Location = r.location
	case Rejection:
		tmpl, subject = rejectionTmpl, rejectionSubject
		data.Message = m.Text
	default:
		return Email{}, fmt.Errorf("%w %q", ErrUnknownType, msg.Kind())
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("render %s: %w", msg.Kind(), err)
	}

	return Email{
		From:    r.from,
		To:      []string{to.Email},
		Subject: subject,
		HTML:    buf.String(),
	}, nil
}
