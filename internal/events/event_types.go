package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBookingCreated       EventType = "booking.created"
	EventBookingStatusChanged EventType = "booking.status_changed"
	EventUserVerified         EventType = "user.verified"
	EventPasswordResetIssued  EventType = "user.password_reset_requested"
	EventPasswordChanged      EventType = "user.password_changed"
	EventEmailChanged         EventType = "user.email_changed"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Recipient is a user reachable by email.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingCreatedPayload payload.
type BookingCreatedPayload struct {
	Booking domain.Booking `json:"booking"`
	Owner   Recipient      `json:"owner"`
}

// BookingStatusChangedPayload payload.
type BookingStatusChangedPayload struct {
	Booking   domain.Booking       `json:"booking"`
	OldStatus domain.BookingStatus `json:"old_status"`
	Owner     Recipient            `json:"owner"`
}

// UserVerifiedPayload payload.
type UserVerifiedPayload struct {
	User Recipient `json:"user"`
}

// PasswordResetPayload carries the raw reset link; it is only ever rendered into an email.
type PasswordResetPayload struct {
	User Recipient     `json:"user"`
	Link string        `json:"-"`
	TTL  time.Duration `json:"ttl"`
}

// PasswordChangedPayload payload.
type PasswordChangedPayload struct {
	User Recipient `json:"user"`
}

// EmailChangedPayload payload.
type EmailChangedPayload struct {
	Name     string `json:"name"`
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}
