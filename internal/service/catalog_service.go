package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/domain"
	"github.com/spec-kit/studio-booking/internal/repository"
	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

const maxCatalogTitleLength = 120

// CatalogService manages the services and package prices the studio offers.
type CatalogService struct {
	entries repository.CatalogRepository
	logger  *zap.Logger
}

// CatalogEntryInput describes one offer. Active defaults to true.
type CatalogEntryInput struct {
	ServiceType string
	PackageType string
	Title       string
	Description string
	Price       float64
	Active      *bool
}

// NewCatalogService builds the service.
func NewCatalogService(entries repository.CatalogRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{entries: entries, logger: logger}
}

// ListOffered returns the active entries, the public price list.
func (s *CatalogService) ListOffered(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := s.entries.List(ctx, true)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

// ListAll includes inactive entries.
func (s *CatalogService) ListAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := s.entries.List(ctx, false)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

// Upsert creates or replaces the offer for a service and package pair.
func (s *CatalogService) Upsert(ctx context.Context, actor Actor, in CatalogEntryInput) (*domain.CatalogEntry, error) {
	serviceType, ok := domain.ParseServiceType(strings.TrimSpace(in.ServiceType))
	if !ok {
		return nil, apperrors.NewValidationError("invalid serviceType", map[string]any{"field": "serviceType"})
	}
	packageType, ok := domain.ParsePackageType(strings.TrimSpace(in.PackageType))
	if !ok {
		return nil, apperrors.NewValidationError("invalid packageType", map[string]any{"field": "packageType"})
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if len([]rune(title)) > maxCatalogTitleLength {
		return nil, apperrors.NewValidationError("title is too long", map[string]any{"field": "title", "max": maxCatalogTitleLength})
	}
	if in.Price <= 0 {
		return nil, apperrors.NewValidationError("price must be greater than zero", map[string]any{"field": "price"})
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	entry := &domain.CatalogEntry{
		ServiceType: serviceType,
		PackageType: packageType,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Active:      active,
	}
	if err := s.entries.Upsert(ctx, entry); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("catalog entry saved",
		zap.String("entry_id", entry.ID),
		zap.String("service_type", string(serviceType)),
		zap.String("package_type", string(packageType)),
		zap.Bool("active", active),
		zap.String("admin_id", actor.UserID))
	return entry, nil
}

// Delete removes an offer. Existing bookings keep their stored price.
func (s *CatalogService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return mapRepoError(err, "catalog entry")
	}
	s.logger.Info("catalog entry deleted", zap.String("entry_id", id), zap.String("admin_id", actor.UserID))
	return nil
}

// quoteBooking settles the price of a new booking against the catalog. Pairs
// with no entry keep the requested price. A listed pair must be active, and
// its list price applies: an omitted price is filled in and a different one
// is refused.
func quoteBooking(ctx context.Context, entries repository.CatalogRepository, service domain.ServiceType, pkg domain.PackageType, requested float64) (float64, error) {
	if entries == nil {
		return requested, nil
	}
	entry, err := entries.Find(ctx, service, pkg)
	if errors.Is(err, repository.ErrNotFound) {
		return requested, nil
	}
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	if !entry.Active {
		return 0, apperrors.NewValidationError("this service package is not currently offered",
			map[string]any{"field": "packageType", "serviceType": string(service), "packageType": string(pkg)})
	}
	if requested <= 0 {
		return entry.Price, nil
	}
	if requested != entry.Price {
		return 0, apperrors.NewValidationError("price does not match the current price list",
			map[string]any{"field": "price", "expected": entry.Price})
	}
	return requested, nil
}
