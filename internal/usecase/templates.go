package usecase

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
)

// EmailConfig addresses outbound mail. Zero values fall back to the
// directory's business email.
type EmailConfig struct {
	Inbox  string
	Sender domain.Address
}

func (c EmailConfig) withDefaults(p directory.Profile) EmailConfig {
	if strings.TrimSpace(c.Inbox) == "" {
		c.Inbox = p.Email
	}
	if strings.TrimSpace(c.Sender.Email) == "" {
		c.Sender.Email = p.Email
	}
	if strings.TrimSpace(c.Sender.Name) == "" {
		c.Sender.Name = p.Name
	}
	return c
}

var htmlFuncs = htmltemplate.FuncMap{
	"nl2br": func(s string) htmltemplate.HTML {
		return htmltemplate.HTML(strings.ReplaceAll(htmltemplate.HTMLEscapeString(s), "\n", "<br>"))
	},
}

var quoteNotificationHTML = htmltemplate.Must(htmltemplate.New("quote_notification").Funcs(htmlFuncs).Parse(`
<h2>New Quote Request</h2>
<p><strong>Full Name:</strong> {{.Submission.FullName}}</p>
<p><strong>Phone:</strong> {{.Submission.Phone}}</p>
<p><strong>Email:</strong> {{.Submission.Email}}</p>
<p><strong>Service:</strong> {{.Submission.ServiceNeeded}}</p>
<p><strong>Message:</strong></p>
<p>{{nl2br .Submission.Message}}</p>
`))

var quoteNotificationText = texttemplate.Must(texttemplate.New("quote_notification").Parse(
	`Full Name: {{.Submission.FullName}}
Phone: {{.Submission.Phone}}
Email: {{.Submission.Email}}
Service: {{.Submission.ServiceNeeded}}
Message: {{.Submission.Message}}`))

var quoteAckHTML = htmltemplate.Must(htmltemplate.New("quote_ack").Funcs(htmlFuncs).Parse(`
<h2>Thanks for getting in touch, {{.Submission.FullName}}!</h2>
<p>We've received your quote request and will get back to you as soon as possible.</p>
<h3>Your details</h3>
<p><strong>Phone:</strong> {{.Submission.Phone}}</p>
<p><strong>Email:</strong> {{.Submission.Email}}</p>
<p><strong>Service Needed:</strong> {{.Submission.ServiceNeeded}}</p>
<p><strong>Message:</strong></p>
<p>{{nl2br .Submission.Message}}</p>
<p style="margin-top:16px;">If this is an emergency, please call us directly on <strong>{{.Profile.Phone}}</strong>.</p>
`))

var quoteAckText = texttemplate.Must(texttemplate.New("quote_ack").Parse(
	`Thanks for getting in touch, {{.Submission.FullName}}!

We've received your quote request and will get back to you as soon as possible.

Your details:
- Phone: {{.Submission.Phone}}
- Email: {{.Submission.Email}}
- Service Needed: {{.Submission.ServiceNeeded}}
- Message: {{.Submission.Message}}

If this is an emergency, please call us directly on {{.Profile.Phone}}.`))

var bookingHTML = htmltemplate.Must(htmltemplate.New("booking").Parse(`
<h2>New Chat Booking Request</h2>
<p><strong>Customer Name:</strong> {{.Booking.Name}}</p>
<p><strong>Phone:</strong> {{.Booking.Phone}}</p>
<p><strong>Service Needed:</strong> {{.Booking.Service}}</p>
{{- if .Booking.Email}}
<p><strong>Email:</strong> {{.Booking.Email}}</p>
{{- end}}
<p style="margin-top:16px; padding-top:16px; border-top:1px solid #ccc;">
  Contact the customer directly at <strong>{{.Booking.Phone}}</strong> or reply to this email.
</p>
`))

var bookingText = texttemplate.Must(texttemplate.New("booking").Parse(
	`New Chat Booking Request

Customer Name: {{.Booking.Name}}
Phone: {{.Booking.Phone}}
Service Needed: {{.Booking.Service}}
{{- if .Booking.Email}}
Email: {{.Booking.Email}}
{{- end}}

Contact the customer directly at {{.Booking.Phone}} or reply to this email.`))

type emailData struct {
	Profile    directory.Profile
	Submission domain.ContactSubmission
	Booking    domain.BookingRequest
}

func render(html *htmltemplate.Template, text *texttemplate.Template, data emailData) (string, string, error) {
	var h, t bytes.Buffer
	if err := html.Execute(&h, data); err != nil {
		return "", "", fmt.Errorf("usecase: render %s html: %w", html.Name(), err)
	}
	if err := text.Execute(&t, data); err != nil {
		return "", "", fmt.Errorf("usecase: render %s text: %w", text.Name(), err)
	}
	return strings.TrimSpace(h.String()), strings.TrimSpace(t.String()), nil
}

func quoteNotification(p directory.Profile, cfg EmailConfig, sub domain.ContactSubmission) (domain.Email, error) {
	html, text, err := render(quoteNotificationHTML, quoteNotificationText, emailData{Profile: p, Submission: sub})
	if err != nil {
		return domain.Email{}, err
	}
	return domain.Email{
		Sender:   cfg.Sender,
		To:       []domain.Address{{Email: cfg.Inbox}},
		ReplyTo:  &domain.Address{Email: sub.Email},
		Subject:  "New Quote Request – " + p.Name,
		HTMLBody: html,
		TextBody: text,
	}, nil
}

func quoteAcknowledgment(p directory.Profile, cfg EmailConfig, sub domain.ContactSubmission) (domain.Email, error) {
	html, text, err := render(quoteAckHTML, quoteAckText, emailData{Profile: p, Submission: sub})
	if err != nil {
		return domain.Email{}, err
	}
	return domain.Email{
		Sender:   cfg.Sender,
		To:       []domain.Address{{Name: sub.FullName, Email: sub.Email}},
		Subject:  "We have received your quote request – " + p.Name,
		HTMLBody: html,
		TextBody: text,
	}, nil
}

func bookingNotification(p directory.Profile, cfg EmailConfig, req domain.BookingRequest) (domain.Email, error) {
	html, text, err := render(bookingHTML, bookingText, emailData{Profile: p, Booking: req})
	if err != nil {
		return domain.Email{}, err
	}
	email := domain.Email{
		Sender:   cfg.Sender,
		To:       []domain.Address{{Email: cfg.Inbox}},
		Subject:  "New Chat Booking - " + p.Name,
		HTMLBody: html,
		TextBody: text,
	}
	if req.Email != "" {
		email.ReplyTo = &domain.Address{Email: req.Email}
	}
	return email, nil
}
