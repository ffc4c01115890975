package domain

import "time"

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review is client feedback, shown publicly once approved.
type Review struct {
	ID        string
	UserID    string
	BookingID *string
	Rating    int
	Comment   string
	Approved  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
