package domain

import "time"

// NotificationStatus tracks an outbox job.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationDead    NotificationStatus = "dead"
)

// NotificationKind labels why a message was queued.
type NotificationKind string

const (
	NotificationWelcome             NotificationKind = "welcome"
	NotificationPasswordReset       NotificationKind = "password_reset"
	NotificationPasswordChanged     NotificationKind = "password_changed"
	NotificationEmailChanged        NotificationKind = "email_changed"
	NotificationBookingCreated      NotificationKind = "booking_created"
	NotificationBookingStatusChange NotificationKind = "booking_status_changed"
)

// Notification is a queued outbound email.
type Notification struct {
	ID            string
	Kind          NotificationKind
	Recipient     string
	RecipientName string
	Subject       string
	TextBody      string
	HTMLBody      string
	Status        NotificationStatus
	Attempts      int
	MaxAttempts   int
	NextAttemptAt time.Time
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SentAt        *time.Time
}
