package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/config"
	"github.com/spec-kit/studio-booking/internal/domain"
)

func TestNewSelectsDriver(t *testing.T) {
	logger := zap.NewNop()

	m, err := New(config.MailConfig{Driver: "log"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	_, err = New(config.MailConfig{Driver: "smtp"}, logger)
	assert.Error(t, err)

	m, err = New(config.MailConfig{Driver: "smtp", SMTPHost: "localhost", SMTPPort: 1025}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	_, err = New(config.MailConfig{Driver: "mailersend"}, logger)
	assert.Error(t, err)

	m, err = New(config.MailConfig{Driver: "mailersend", MailerSendAPIKey: "key", From: "a@b.c"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MailerSendMailer{}, m)

	_, err = New(config.MailConfig{Driver: "pigeon"}, logger)
	assert.Error(t, err)
}

func TestCaptureMailer(t *testing.T) {
	m := &CaptureMailer{}
	require.NoError(t, m.Send(context.Background(), Message{To: "A@x.com", Subject: "one"}))
	require.NoError(t, m.Send(context.Background(), Message{To: "a@x.com", Subject: "two"}))

	last, ok := m.Last("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "two", last.Subject)

	m.SetErr(errors.New("down"))
	assert.Error(t, m.Send(context.Background(), Message{To: "b@x.com"}))
	assert.Len(t, m.Sent(), 2)
}

func TestOTPMessageByPurpose(t *testing.T) {
	msg := OTPMessage("a@x.com", "Ana", "123456", domain.OTPPurposeAdminLogin, 10*time.Minute)
	assert.Contains(t, msg.Text, "123456")
	assert.Contains(t, msg.Text, "10 minutes")
	assert.Equal(t, "Your admin sign-in code", msg.Subject)

	msg = OTPMessage("a@x.com", "", "000001", domain.OTPPurposeRegistration, 10*time.Minute)
	assert.Equal(t, "Verify your email", msg.Subject)
	assert.True(t, strings.HasPrefix(msg.Text, "Hello,"))
}

func TestBookingStatusMessage(t *testing.T) {
	booking := domain.Booking{
		ServiceType: domain.ServiceWedding,
		Status:      domain.BookingStatusApproved,
		Date:        time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC),
		AdminNotes:  "Bring <flowers>",
	}
	msg := BookingStatusMessage("a@x.com", "Ana", booking)
	assert.Equal(t, "Your booking is confirmed", msg.Subject)
	assert.Contains(t, msg.Text, "Saturday, June 6, 2026")
	assert.Contains(t, msg.HTML, "&lt;flowers&gt;")

	booking.Status = domain.BookingStatusRejected
	assert.Equal(t, "Update on your booking request", BookingStatusMessage("a@x.com", "Ana", booking).Subject)
}

func TestBuildMIME(t *testing.T) {
	body := string(buildMIME("from@x.com", "to@x.com", Message{Subject: "Hi", Text: "plain", HTML: "<b>rich</b>"}))
	assert.Contains(t, body, "To: to@x.com\r\n")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "plain")
	assert.Contains(t, body, "<b>rich</b>")
}
