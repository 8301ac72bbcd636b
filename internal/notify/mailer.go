package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"roommates/internal/core"
)

// Subject of the new-expense email.
const Subject = "Nuevo Gasto Registrado"

// ErrMailDisabled is returned by a mailer built without credentials.
var ErrMailDisabled = errors.New("SMTP no configurado")

// Mailer delivers one HTML message to a set of recipients.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// SMTPConfig holds the outbound SMTP settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

// Send dials the relay and delivers the message. gomail has no context
// support, so ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// DisabledMailer fails every send. It stands in when no credentials are set
// so the outcome is still reported and logged.
type DisabledMailer struct{}

func (DisabledMailer) Send(context.Context, []string, string, string) error {
	return ErrMailDisabled
}

var bodyTemplate = template.Must(template.New("gasto").Parse(`
<h1>Notificación de Nuevo Gasto</h1>
<p>Se ha registrado un nuevo gasto en el sistema:</p>
<ul>
    <li>Roommate: {{.Roommate}}</li>
    <li>Descripción: {{.Descripcion}}</li>
    <li>Monto: {{.Monto}}</li>
</ul>
`))

// RenderBody returns the HTML body announcing e.
func RenderBody(e core.Expense) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, e); err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return buf.String(), nil
}
