package mail

import (
	"fmt"
	"net/smtp"

	"storefront/internal/config"
)

// Sender delivers a plain-text message to one recipient.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTP struct {
	addr string
	from string
	auth smtp.Auth
}

// New returns nil when no SMTP server is configured.
func New(cfg config.MailConfig) *SMTP {
	if cfg.SMTPAddr == "" {
		return nil
	}
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.SMTPHost)
	}
	return &SMTP{addr: cfg.SMTPAddr, from: cfg.From, auth: auth}
}

func (m *SMTP) Send(to, subject, body string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n%s",
		m.from, to, subject, body,
	)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
