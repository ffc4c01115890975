// Package mailer delivers transactional email through a configurable transport.
package mailer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/config"
)

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects a transport from configuration.
func New(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogMailer(logger), nil
	case "smtp":
		if strings.TrimSpace(cfg.SMTPHost) == "" {
			return nil, fmt.Errorf("SMTP_HOST is required for the smtp mail driver")
		}
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPUseTLS), nil
	case "mailersend":
		if strings.TrimSpace(cfg.MailerSendAPIKey) == "" {
			return nil, fmt.Errorf("MAILERSEND_API_KEY is required for the mailersend mail driver")
		}
		return NewMailerSendMailer(cfg.MailerSendAPIKey, cfg.FromName, cfg.From), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_DRIVER %q", cfg.Driver)
	}
}

// LogMailer writes messages to the log instead of sending them. Bodies are
// omitted since they carry codes and reset links.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer returns a development transport.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email suppressed by log mail driver",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// CaptureMailer records messages in memory; tests read them back.
type CaptureMailer struct {
	mu   sync.Mutex
	sent []Message
	// Err, when set, is returned by Send and nothing is recorded.
	Err error
}

func (m *CaptureMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *CaptureMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// SetErr changes the failure injected into Send.
func (m *CaptureMailer) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Last returns the most recent message sent to recipient.
func (m *CaptureMailer) Last(recipient string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if strings.EqualFold(m.sent[i].To, recipient) {
			return m.sent[i], true
		}
	}
	return Message{}, false
}
