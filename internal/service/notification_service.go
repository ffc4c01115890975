package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/auth"
	"github.com/spec-kit/studio-booking/internal/config"
	"github.com/spec-kit/studio-booking/internal/domain"
	"github.com/spec-kit/studio-booking/internal/events"
	"github.com/spec-kit/studio-booking/internal/mailer"
	"github.com/spec-kit/studio-booking/internal/repository"
)

// NotificationService turns domain events into outbox jobs. Delivery happens in
// the notification worker.
type NotificationService struct {
	outbox      repository.NotificationRepository
	dispatcher  events.Dispatcher
	allowlist   *auth.AdminAllowlist
	logger      *zap.Logger
	maxAttempts int
}

// NewNotificationService creates the service.
func NewNotificationService(outbox repository.NotificationRepository, dispatcher events.Dispatcher, allowlist *auth.AdminAllowlist, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &NotificationService{
		outbox:      outbox,
		dispatcher:  dispatcher,
		allowlist:   allowlist,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserVerified, n.handleUserVerified)
	n.dispatcher.Subscribe(events.EventPasswordResetIssued, n.handlePasswordReset)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handlePasswordChanged)
	n.dispatcher.Subscribe(events.EventEmailChanged, n.handleEmailChanged)
	n.dispatcher.Subscribe(events.EventBookingCreated, n.handleBookingCreated)
	n.dispatcher.Subscribe(events.EventBookingStatusChanged, n.handleBookingStatusChanged)
}

// Enqueue stores msg in the outbox.
func (n *NotificationService) Enqueue(ctx context.Context, kind domain.NotificationKind, msg mailer.Message) error {
	job := &domain.Notification{
		Kind:          kind,
		Recipient:     msg.To,
		RecipientName: msg.ToName,
		Subject:       msg.Subject,
		TextBody:      msg.Text,
		HTMLBody:      msg.HTML,
		Status:        domain.NotificationPending,
		MaxAttempts:   n.maxAttempts,
	}
	if err := n.outbox.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue %s notification: %w", kind, err)
	}
	n.logger.Debug("notification queued", zap.String("id", job.ID), zap.String("kind", string(kind)))
	return nil
}

func (n *NotificationService) handleUserVerified(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserVerifiedPayload)
	if !ok {
		return payloadError(event)
	}
	return n.Enqueue(ctx, domain.NotificationWelcome, mailer.WelcomeMessage(payload.User.Email, payload.User.Name))
}

func (n *NotificationService) handlePasswordReset(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetPayload)
	if !ok {
		return payloadError(event)
	}
	return n.Enqueue(ctx, domain.NotificationPasswordReset,
		mailer.PasswordResetMessage(payload.User.Email, payload.User.Name, payload.Link, payload.TTL))
}

func (n *NotificationService) handlePasswordChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordChangedPayload)
	if !ok {
		return payloadError(event)
	}
	return n.Enqueue(ctx, domain.NotificationPasswordChanged,
		mailer.PasswordChangedMessage(payload.User.Email, payload.User.Name))
}

func (n *NotificationService) handleEmailChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EmailChangedPayload)
	if !ok {
		return payloadError(event)
	}
	var firstErr error
	for _, to := range []string{payload.OldEmail, payload.NewEmail} {
		msg := mailer.EmailChangedMessage(to, payload.Name, payload.OldEmail, payload.NewEmail)
		if err := n.Enqueue(ctx, domain.NotificationEmailChanged, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (n *NotificationService) handleBookingCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BookingCreatedPayload)
	if !ok {
		return payloadError(event)
	}
	recipients := n.allowlist.Recipients()
	if len(recipients) == 0 {
		n.logger.Warn("no admin recipients for booking notification", zap.String("booking_id", payload.Booking.ID))
		return nil
	}
	var firstErr error
	for _, to := range recipients {
		msg := mailer.BookingCreatedMessage(to, payload.Booking, payload.Owner.Name, payload.Owner.Email)
		if err := n.Enqueue(ctx, domain.NotificationBookingCreated, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (n *NotificationService) handleBookingStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BookingStatusChangedPayload)
	if !ok {
		return payloadError(event)
	}
	if payload.Owner.Email == "" {
		n.logger.Warn("booking owner has no email", zap.String("booking_id", payload.Booking.ID))
		return nil
	}
	return n.Enqueue(ctx, domain.NotificationBookingStatusChange,
		mailer.BookingStatusMessage(payload.Owner.Email, payload.Owner.Name, payload.Booking))
}

func payloadError(event events.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
}
