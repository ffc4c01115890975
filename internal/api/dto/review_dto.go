package dto

import (
	"time"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// CreateReviewRequest payload.
type CreateReviewRequest struct {
	Rating    int     `json:"rating"`
	Comment   string  `json:"comment"`
	BookingID *string `json:"bookingId"`
}

// ReviewApprovalRequest payload.
type ReviewApprovalRequest struct {
	Approved *bool `json:"approved"`
}

// ReviewResponse view.
type ReviewResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	BookingID *string   `json:"bookingId,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewReviewResponse renders a review.
func NewReviewResponse(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		BookingID: r.BookingID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Approved:  r.Approved,
		CreatedAt: r.CreatedAt,
	}
}

// NewReviewListResponse renders reviews.
func NewReviewListResponse(reviews []domain.Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, NewReviewResponse(&reviews[i]))
	}
	return out
}
