package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"resbook/pkg/logger"
)

// Mailer delivers a composed email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SMTPMailer delivers mail over plain SMTP.
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(host, port, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
	}
}

func (m *SMTPMailer) Send(_ context.Context, email Email) error {
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", m.from),
		fmt.Sprintf("To: %s", email.To),
		fmt.Sprintf("Subject: %s", email.Subject),
		"",
		email.Body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, nil, m.from, []string{email.To}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}
	return nil
}

// LogMailer writes notifications to the log instead of delivering them.
// Used when no SMTP host is configured (local development, tests).
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.log.Info("Email delivery skipped (no SMTP host configured)",
		"to", email.To,
		"subject", email.Subject,
		"body", email.Body,
	)
	return nil
}
