package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/domain"
	"github.com/spec-kit/studio-booking/internal/events"
	"github.com/spec-kit/studio-booking/internal/repository"
	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

const ownerJoinWarning = "owner details unavailable"

// BookingService coordinates booking workflows.
type BookingService struct {
	bookings   repository.BookingRepository
	users      repository.UserRepository
	catalog    repository.CatalogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// BookingDependencies bundles collaborators for the booking service.
type BookingDependencies struct {
	BookingRepo repository.BookingRepository
	UserRepo    repository.UserRepository
	// Catalog, when set, prices and gates new bookings.
	Catalog    repository.CatalogRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// BookingCreateInput describes a booking request. There is no status: new
// bookings always start pending.
type BookingCreateInput struct {
	ServiceType            string
	PackageType            string
	Date                   time.Time
	Location               string
	AdditionalRequirements string
	Price                  float64
}

// BookingUpdateInput carries the fields present in an update request.
type BookingUpdateInput struct {
	ServiceType            *string
	PackageType            *string
	Date                   *time.Time
	Location               *string
	AdditionalRequirements *string
	Price                  *float64
	Status                 *string
	AdminNotes             *string
}

// touchesAdminFields reports whether the update names a field only admins may change.
func (in BookingUpdateInput) touchesAdminFields() bool {
	return in.ServiceType != nil || in.PackageType != nil || in.Price != nil || in.Status != nil || in.AdminNotes != nil
}

// BookingList is an admin listing; Warning is set when owners could not be joined.
type BookingList struct {
	Bookings []domain.BookingWithOwner
	Warning  string
}

// NewBookingService constructs the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings:   deps.BookingRepo,
		users:      deps.UserRepo,
		catalog:    deps.Catalog,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create stores a pending booking for the caller and notifies the admins.
func (s *BookingService) Create(ctx context.Context, actor Actor, in BookingCreateInput) (*domain.Booking, error) {
	serviceType, ok := domain.ParseServiceType(strings.TrimSpace(in.ServiceType))
	if !ok {
		return nil, apperrors.NewValidationError("invalid serviceType", map[string]any{"field": "serviceType"})
	}
	packageType, ok := domain.ParsePackageType(strings.TrimSpace(in.PackageType))
	if !ok {
		return nil, apperrors.NewValidationError("invalid packageType", map[string]any{"field": "packageType"})
	}
	location := strings.TrimSpace(in.Location)
	price, err := quoteBooking(ctx, s.catalog, serviceType, packageType, in.Price)
	if err != nil {
		return nil, err
	}
	if err := validateBookingFields(in.Date, location, price); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		UserID:                 actor.UserID,
		ServiceType:            serviceType,
		PackageType:            packageType,
		Date:                   in.Date,
		Location:               location,
		AdditionalRequirements: strings.TrimSpace(in.AdditionalRequirements),
		Price:                  price,
		Status:                 domain.BookingStatusPending,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, mapRepoError(err, "user")
	}
	s.logger.Info("booking created", zap.String("booking_id", booking.ID), zap.String("user_id", actor.UserID))

	s.publish(ctx, events.NewEvent(events.EventBookingCreated, events.Actor{UserID: actor.UserID, IsAdmin: actor.IsAdmin},
		events.BookingCreatedPayload{Booking: *booking, Owner: s.recipient(ctx, booking.UserID)}))
	return booking, nil
}

// ListMine returns the caller's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, actor Actor) ([]domain.Booking, error) {
	bookings, err := s.bookings.List(ctx, repository.BookingFilter{UserID: &actor.UserID})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return bookings, nil
}

// Get returns a booking visible to the caller.
func (s *BookingService) Get(ctx context.Context, actor Actor, id string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "booking")
	}
	if !actor.IsAdmin && !booking.IsOwnedBy(actor.UserID) {
		return nil, apperrors.NewForbidden("not allowed to access this booking")
	}
	return booking, nil
}

// Update changes a booking. Owners may edit date, location and requirements
// while the booking is pending; admins may edit any field, with status changes
// checked against the state table.
func (s *BookingService) Update(ctx context.Context, actor Actor, id string, in BookingUpdateInput) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "booking")
	}

	if !actor.IsAdmin {
		if !booking.IsOwnedBy(actor.UserID) {
			return nil, apperrors.NewForbidden("not allowed to modify this booking")
		}
		if in.touchesAdminFields() {
			return nil, apperrors.NewForbidden("only date, location and additionalRequirements can be changed")
		}
		if !booking.IsPending() {
			return nil, apperrors.NewForbidden("only pending bookings can be modified")
		}
	}

	oldStatus := booking.Status
	if err := applyBookingUpdate(booking, in); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, mapRepoError(err, "booking")
	}

	if booking.Status != oldStatus {
		s.publishStatusChange(ctx, actor, booking, oldStatus)
	}
	return booking, nil
}

// Delete removes a booking: owners only while pending, admins always.
func (s *BookingService) Delete(ctx context.Context, actor Actor, id string) error {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "booking")
	}
	if !actor.IsAdmin {
		if !booking.IsOwnedBy(actor.UserID) {
			return apperrors.NewForbidden("not allowed to delete this booking")
		}
		if !booking.IsPending() {
			return apperrors.NewForbidden("only pending bookings can be cancelled")
		}
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return mapRepoError(err, "booking")
	}
	s.logger.Info("booking deleted", zap.String("booking_id", id), zap.String("actor_id", actor.UserID))
	return nil
}

// ListAll returns every booking with its owner, optionally filtered by status.
// When the owner join fails the plain records are returned with a warning.
func (s *BookingService) ListAll(ctx context.Context, status string) (*BookingList, error) {
	filter := repository.BookingFilter{}
	if status = strings.TrimSpace(status); status != "" {
		parsed, ok := domain.ParseBookingStatus(status)
		if !ok {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"field": "status"})
		}
		filter.Status = &parsed
	}

	joined, err := s.bookings.ListWithOwners(ctx, filter)
	if err == nil {
		return &BookingList{Bookings: joined}, nil
	}
	s.logger.Warn("booking owner join failed, returning plain records", zap.Error(err))

	plain, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	out := make([]domain.BookingWithOwner, 0, len(plain))
	for _, b := range plain {
		out = append(out, domain.BookingWithOwner{Booking: b})
	}
	return &BookingList{Bookings: out, Warning: ownerJoinWarning}, nil
}

// UpdateStatus moves a booking through the state table and notifies its owner.
// Identical status and notes are a no-op reported by changed == false.
func (s *BookingService) UpdateStatus(ctx context.Context, actor Actor, id, status string, adminNotes *string) (booking *domain.Booking, changed bool, err error) {
	next, ok := domain.ParseBookingStatus(strings.TrimSpace(status))
	if !ok {
		return nil, false, apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
	}
	booking, err = s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, false, mapRepoError(err, "booking")
	}

	notesUnchanged := adminNotes == nil || *adminNotes == booking.AdminNotes
	if next == booking.Status && notesUnchanged {
		return booking, false, nil
	}
	if next != booking.Status && !domain.CanTransition(booking.Status, next) {
		return nil, false, invalidTransition(booking.Status, next)
	}

	oldStatus := booking.Status
	booking.Status = next
	if adminNotes != nil {
		booking.AdminNotes = *adminNotes
	}
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, false, mapRepoError(err, "booking")
	}
	s.logger.Info("booking status updated",
		zap.String("booking_id", booking.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(next)))

	s.publishStatusChange(ctx, actor, booking, oldStatus)
	return booking, true, nil
}

func applyBookingUpdate(b *domain.Booking, in BookingUpdateInput) error {
	if in.ServiceType != nil {
		st, ok := domain.ParseServiceType(strings.TrimSpace(*in.ServiceType))
		if !ok {
			return apperrors.NewValidationError("invalid serviceType", map[string]any{"field": "serviceType"})
		}
		b.ServiceType = st
	}
	if in.PackageType != nil {
		pt, ok := domain.ParsePackageType(strings.TrimSpace(*in.PackageType))
		if !ok {
			return apperrors.NewValidationError("invalid packageType", map[string]any{"field": "packageType"})
		}
		b.PackageType = pt
	}
	if in.Date != nil {
		b.Date = *in.Date
	}
	if in.Location != nil {
		b.Location = strings.TrimSpace(*in.Location)
	}
	if in.AdditionalRequirements != nil {
		b.AdditionalRequirements = strings.TrimSpace(*in.AdditionalRequirements)
	}
	if in.Price != nil {
		b.Price = *in.Price
	}
	if in.AdminNotes != nil {
		b.AdminNotes = *in.AdminNotes
	}
	if in.Status != nil {
		next, ok := domain.ParseBookingStatus(strings.TrimSpace(*in.Status))
		if !ok {
			return apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
		}
		if next != b.Status && !domain.CanTransition(b.Status, next) {
			return invalidTransition(b.Status, next)
		}
		b.Status = next
	}
	return validateBookingFields(b.Date, b.Location, b.Price)
}

func validateBookingFields(date time.Time, location string, price float64) error {
	if date.IsZero() {
		return apperrors.NewValidationError("date is required", map[string]any{"field": "date"})
	}
	if location == "" {
		return apperrors.NewValidationError("location is required", map[string]any{"field": "location"})
	}
	if price <= 0 {
		return apperrors.NewValidationError("price must be greater than zero", map[string]any{"field": "price"})
	}
	return nil
}

func invalidTransition(from, to domain.BookingStatus) error {
	return apperrors.NewValidationError("invalid status transition",
		map[string]any{"from": string(from), "to": string(to)})
}

func (s *BookingService) publishStatusChange(ctx context.Context, actor Actor, booking *domain.Booking, oldStatus domain.BookingStatus) {
	s.publish(ctx, events.NewEvent(events.EventBookingStatusChanged, events.Actor{UserID: actor.UserID, IsAdmin: actor.IsAdmin},
		events.BookingStatusChangedPayload{
			Booking:   *booking,
			OldStatus: oldStatus,
			Owner:     s.recipient(ctx, booking.UserID),
		}))
}

// recipient loads the notification address of a user; a failed lookup yields
// an empty recipient and a warning.
func (s *BookingService) recipient(ctx context.Context, userID string) events.Recipient {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("load booking owner failed", zap.String("user_id", userID), zap.Error(err))
		return events.Recipient{}
	}
	return events.Recipient{Name: user.Name, Email: user.Email}
}

func (s *BookingService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
