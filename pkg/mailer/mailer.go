package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/pkg/errors"
)

// Mailer is the interface for anything that can deliver an alert message.
type Mailer interface {
	Send(subject, body string) error
}

// Config holds SMTP connection details for the default mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// SMTPMailer delivers alert mail over plain SMTP with auth.
type SMTPMailer struct {
	config *Config
}

// NewSMTPMailer returns a mailer sending through the configured SMTP host.
func NewSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{config: config}
}

// Send delivers a single message. Delivery is synchronous; callers that must
// not block should wrap the call themselves.
func (m *SMTPMailer) Send(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.config.From, m.config.To, subject, body,
	)

	err := smtp.SendMail(addr, auth, m.config.From, []string{m.config.To}, []byte(msg))
	if err != nil {
		return errors.Wrap(err, "failed to send alert mail")
	}

	return nil
}
