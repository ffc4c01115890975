package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/domain"
	"github.com/spec-kit/studio-booking/internal/repository"
	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

const maxCommentLength = 1000

// ReviewService manages client reviews and their moderation.
type ReviewService struct {
	reviews  repository.ReviewRepository
	bookings repository.BookingRepository
	logger   *zap.Logger
}

// ReviewInput is a new review.
type ReviewInput struct {
	Rating    int
	Comment   string
	BookingID *string
}

// NewReviewService builds the service.
func NewReviewService(reviews repository.ReviewRepository, bookings repository.BookingRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, bookings: bookings, logger: logger}
}

// Create stores an unapproved review. A referenced booking must be the
// caller's and completed.
func (s *ReviewService) Create(ctx context.Context, actor Actor, in ReviewInput) (*domain.Review, error) {
	if in.Rating < domain.MinReviewRating || in.Rating > domain.MaxReviewRating {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"field": "rating"})
	}
	comment := strings.TrimSpace(in.Comment)
	if comment == "" {
		return nil, apperrors.NewValidationError("comment is required", map[string]any{"field": "comment"})
	}
	if len([]rune(comment)) > maxCommentLength {
		return nil, apperrors.NewValidationError("comment is too long", map[string]any{"field": "comment", "max": maxCommentLength})
	}

	var bookingID *string
	if in.BookingID != nil && strings.TrimSpace(*in.BookingID) != "" {
		id := strings.TrimSpace(*in.BookingID)
		booking, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepoError(err, "booking")
		}
		if !booking.IsOwnedBy(actor.UserID) {
			return nil, apperrors.NewForbidden("can only review your own bookings")
		}
		if booking.Status != domain.BookingStatusCompleted {
			return nil, apperrors.NewValidationError("only completed bookings can be reviewed", map[string]any{"field": "bookingId"})
		}
		bookingID = &id
	}

	review := &domain.Review{
		UserID:    actor.UserID,
		BookingID: bookingID,
		Rating:    in.Rating,
		Comment:   comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, mapRepoError(err, "review")
	}
	s.logger.Info("review submitted", zap.String("review_id", review.ID), zap.String("user_id", actor.UserID))
	return review, nil
}

// ListPublic returns approved reviews.
func (s *ReviewService) ListPublic(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.reviews.List(ctx, true)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return reviews, nil
}

// ListAll returns every review for moderation.
func (s *ReviewService) ListAll(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.reviews.List(ctx, false)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return reviews, nil
}

// SetApproval publishes or hides a review.
func (s *ReviewService) SetApproval(ctx context.Context, id string, approved bool) (*domain.Review, error) {
	if err := s.reviews.SetApproved(ctx, id, approved); err != nil {
		return nil, mapRepoError(err, "review")
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "review")
	}
	return review, nil
}

// Delete removes a review owned by the caller, or any review for an admin.
func (s *ReviewService) Delete(ctx context.Context, actor Actor, id string) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "review")
	}
	if !actor.IsAdmin && review.UserID != actor.UserID {
		return apperrors.NewForbidden("not allowed to delete this review")
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return mapRepoError(err, "review")
	}
	return nil
}
