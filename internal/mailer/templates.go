package mailer

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/spec-kit/studio-booking/internal/domain"
)

const bookingDateLayout = "Monday, January 2, 2006"

func greeting(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hi %s,", name)
}

func paragraphs(lines ...string) string {
	var b strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(line))
	}
	return b.String()
}

// OTPMessage carries a one-time code. The wording depends on why it was issued.
func OTPMessage(to, name, code string, purpose domain.OTPPurpose, ttl time.Duration) Message {
	subject := "Verify your email"
	intro := "Use the code below to verify your email address."
	switch purpose {
	case domain.OTPPurposeAdminLogin:
		subject = "Your admin sign-in code"
		intro = "Use the code below to finish signing in to the admin panel."
	case domain.OTPPurposeEmailChange:
		subject = "Confirm your new email address"
		intro = "Use the code below to confirm this address for your account."
	}
	expiry := fmt.Sprintf("The code expires in %d minutes. If you did not request it you can ignore this email.", int(ttl.Minutes()))

	return Message{
		To:      to,
		ToName:  name,
		Subject: subject,
		Text:    fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s", greeting(name), intro, code, expiry),
		HTML: paragraphs(greeting(name), intro) +
			fmt.Sprintf(`<p style="font-size:24px;letter-spacing:6px"><b>%s</b></p>`, html.EscapeString(code)) +
			paragraphs(expiry),
	}
}

// WelcomeMessage greets a newly verified user.
func WelcomeMessage(to, name string) Message {
	body := "Your email is verified and your account is ready. You can now request bookings."
	return Message{
		To:      to,
		ToName:  name,
		Subject: "Welcome!",
		Text:    fmt.Sprintf("%s\n\n%s", greeting(name), body),
		HTML:    paragraphs(greeting(name), body),
	}
}

// PasswordResetMessage carries the reset link.
func PasswordResetMessage(to, name, link string, ttl time.Duration) Message {
	intro := "We received a request to reset your password. Open the link below to choose a new one."
	expiry := fmt.Sprintf("The link expires in %d minutes and can be used once.", int(ttl.Minutes()))
	return Message{
		To:      to,
		ToName:  name,
		Subject: "Reset your password",
		Text:    fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s", greeting(name), intro, link, expiry),
		HTML: paragraphs(greeting(name), intro) +
			fmt.Sprintf(`<p><a href="%s">Reset password</a></p>`, html.EscapeString(link)) +
			paragraphs(expiry),
	}
}

// PasswordChangedMessage confirms a completed password change or reset.
func PasswordChangedMessage(to, name string) Message {
	body := "Your password was changed. If this was not you, reset your password immediately."
	return Message{
		To:      to,
		ToName:  name,
		Subject: "Your password was changed",
		Text:    fmt.Sprintf("%s\n\n%s", greeting(name), body),
		HTML:    paragraphs(greeting(name), body),
	}
}

// EmailChangedMessage tells an address that the account email moved.
func EmailChangedMessage(to, name, oldEmail, newEmail string) Message {
	body := fmt.Sprintf("The email on your account was changed from %s to %s.", oldEmail, newEmail)
	return Message{
		To:      to,
		ToName:  name,
		Subject: "Your account email was changed",
		Text:    fmt.Sprintf("%s\n\n%s", greeting(name), body),
		HTML:    paragraphs(greeting(name), body),
	}
}

// BookingCreatedMessage notifies an admin of a new request.
func BookingCreatedMessage(to string, booking domain.Booking, ownerName, ownerEmail string) Message {
	lines := []string{
		fmt.Sprintf("%s requested a %s booking (%s package).", ownerName, booking.ServiceType, booking.PackageType),
		fmt.Sprintf("Client email: %s", ownerEmail),
		fmt.Sprintf("Date: %s", booking.Date.Format(bookingDateLayout)),
		fmt.Sprintf("Location: %s", booking.Location),
		fmt.Sprintf("Price: %.2f", booking.Price),
	}
	if booking.AdditionalRequirements != "" {
		lines = append(lines, "Requirements: "+booking.AdditionalRequirements)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("New booking request: %s", booking.ServiceType),
		Text:    strings.Join(lines, "\n"),
		HTML:    paragraphs(lines...),
	}
}

// BookingStatusMessage tells the owner about a status change.
func BookingStatusMessage(to, name string, booking domain.Booking) Message {
	date := booking.Date.Format(bookingDateLayout)
	var subject, body string
	switch booking.Status {
	case domain.BookingStatusApproved:
		subject = "Your booking is confirmed"
		body = fmt.Sprintf("Great news! Your %s session on %s has been approved.", booking.ServiceType, date)
	case domain.BookingStatusRejected:
		subject = "Update on your booking request"
		body = fmt.Sprintf("Unfortunately we cannot take your %s session on %s.", booking.ServiceType, date)
	case domain.BookingStatusCompleted:
		subject = "Thank you for your session"
		body = fmt.Sprintf("Your %s session on %s is complete. We would love to hear your feedback.", booking.ServiceType, date)
	default:
		subject = "Your booking was updated"
		body = fmt.Sprintf("Your %s booking on %s is now %s.", booking.ServiceType, date, booking.Status)
	}
	lines := []string{greeting(name), body}
	if booking.AdminNotes != "" {
		lines = append(lines, "Notes from the studio: "+booking.AdminNotes)
	}
	return Message{
		To:      to,
		ToName:  name,
		Subject: subject,
		Text:    strings.Join(lines, "\n\n"),
		HTML:    paragraphs(lines...),
	}
}
