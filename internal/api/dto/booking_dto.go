package dto

import (
	"time"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// CreateBookingRequest payload. A client supplied status is accepted by the
// decoder and ignored.
type CreateBookingRequest struct {
	ServiceType            string    `json:"serviceType"`
	PackageType            string    `json:"packageType"`
	Date                   Date      `json:"date"`
	Location               string    `json:"location"`
	AdditionalRequirements string    `json:"additionalRequirements"`
	Price                  float64   `json:"price"`
	Status                 string    `json:"status,omitempty"`
}

// UpdateBookingRequest payload; nil fields are left alone.
type UpdateBookingRequest struct {
	ServiceType            *string    `json:"serviceType"`
	PackageType            *string    `json:"packageType"`
	Date                   *Date      `json:"date"`
	Location               *string    `json:"location"`
	AdditionalRequirements *string    `json:"additionalRequirements"`
	Price                  *float64   `json:"price"`
	Status                 *string    `json:"status"`
	AdminNotes             *string    `json:"adminNotes"`
}

// UpdateBookingStatusRequest payload for the admin status endpoint.
type UpdateBookingStatusRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

// BookingOwnerResponse is the joined owner in admin listings.
type BookingOwnerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingResponse view.
type BookingResponse struct {
	ID                     string                `json:"id"`
	UserID                 string                `json:"userId"`
	ServiceType            domain.ServiceType    `json:"serviceType"`
	PackageType            domain.PackageType    `json:"packageType"`
	Date                   time.Time             `json:"date"`
	Location               string                `json:"location"`
	AdditionalRequirements string                `json:"additionalRequirements,omitempty"`
	Price                  float64               `json:"price"`
	Status                 domain.BookingStatus  `json:"status"`
	AdminNotes             string                `json:"adminNotes,omitempty"`
	CreatedAt              time.Time             `json:"createdAt"`
	UpdatedAt              time.Time             `json:"updatedAt"`
	User                   *BookingOwnerResponse `json:"user,omitempty"`
}

// NewBookingResponse renders a booking.
func NewBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:                     b.ID,
		UserID:                 b.UserID,
		ServiceType:            b.ServiceType,
		PackageType:            b.PackageType,
		Date:                   b.Date,
		Location:               b.Location,
		AdditionalRequirements: b.AdditionalRequirements,
		Price:                  b.Price,
		Status:                 b.Status,
		AdminNotes:             b.AdminNotes,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
	}
}

// NewBookingListResponse renders bookings with their owners when known.
func NewBookingListResponse(items []domain.BookingWithOwner) []BookingResponse {
	out := make([]BookingResponse, 0, len(items))
	for i := range items {
		resp := NewBookingResponse(&items[i].Booking)
		if owner := items[i].Owner; owner != nil {
			resp.User = &BookingOwnerResponse{ID: owner.ID, Name: owner.Name, Email: owner.Email}
		}
		out = append(out, resp)
	}
	return out
}
