package mailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

// MailerSendMailer sends through the MailerSend API.
type MailerSendMailer struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	timeout time.Duration
}

// NewMailerSendMailer builds the API transport.
func NewMailerSendMailer(apiKey, fromName, fromEmail string) *MailerSendMailer {
	return &MailerSendMailer{
		client:  mailersend.NewMailersend(apiKey),
		from:    mailersend.From{Name: fromName, Email: fromEmail},
		timeout: 10 * time.Second,
	}
}

func (m *MailerSendMailer) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	email := m.client.Email.NewMessage()
	email.SetFrom(m.from)
	email.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.To}})
	email.SetSubject(msg.Subject)
	if strings.TrimSpace(msg.Text) != "" {
		email.SetText(msg.Text)
	}
	if strings.TrimSpace(msg.HTML) != "" {
		email.SetHTML(msg.HTML)
	}

	res, err := m.client.Email.Send(ctx, email)
	if err != nil {
		return fmt.Errorf("mailersend send: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
