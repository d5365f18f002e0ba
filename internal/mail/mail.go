// Package mail dispatches transactional email. The workflow engine treats
// delivery as an external collaborator: a send failure aborts the business
// transaction that requested it.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Email is a single outbound message with text and HTML alternatives.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers an email. Implementations must return an error when the
// message was not handed off, since callers roll back on failure.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// LogSender is the development sender: it logs the message instead of
// delivering it.
type LogSender struct{}

// Send logs the email and always succeeds.
func (LogSender) Send(_ context.Context, e Email) error {
	slog.Info("email (log mode)",
		"to", e.To,
		"subject", e.Subject,
		"text_body", e.TextBody,
	)
	return nil
}

// SMTPSender delivers mail through a single SMTP endpoint.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPSender creates an SMTPSender for addr (host:port) sending as
// from. Username may be empty for unauthenticated relays.
func NewSMTPSender(addr, from, username, password string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		host := addr
		if i := strings.LastIndex(addr, ":"); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{addr: addr, from: from, auth: auth}
}

// Send delivers the email as a multipart/alternative message.
func (s *SMTPSender) Send(_ context.Context, e Email) error {
	msg := buildMessage(s.from, e)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{e.To}, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", e.To, err)
	}
	return nil
}

const boundary = "coachwork-alt-boundary"

func buildMessage(from string, e Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + e.To + "\r\n")
	b.WriteString("Subject: " + e.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n")
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(e.TextBody)
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(e.HTMLBody)
	b.WriteString("\r\n")

	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String())
}
