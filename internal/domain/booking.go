package domain

import "time"

// BookingStatus enumerates lifecycle states for bookings.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCompleted BookingStatus = "completed"
)

// ServiceType is the photography service being booked.
type ServiceType string

const (
	ServiceWedding    ServiceType = "wedding"
	ServicePortrait   ServiceType = "portrait"
	ServiceEvent      ServiceType = "event"
	ServiceFamily     ServiceType = "family"
	ServiceCommercial ServiceType = "commercial"
	ServiceMaternity  ServiceType = "maternity"
)

// PackageType is the pricing tier of a booking.
type PackageType string

const (
	PackageBasic    PackageType = "basic"
	PackageStandard PackageType = "standard"
	PackagePremium  PackageType = "premium"
)

// Booking is a service booking owned by a single user.
type Booking struct {
	ID                     string
	UserID                 string
	ServiceType            ServiceType
	PackageType            PackageType
	Date                   time.Time
	Location               string
	AdditionalRequirements string
	Price                  float64
	Status                 BookingStatus
	AdminNotes             string
	Version                int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// BookingOwner is the joined owner projection used in admin listings.
type BookingOwner struct {
	ID    string
	Name  string
	Email string
}

// BookingWithOwner pairs a booking with its owner, when the join succeeded.
type BookingWithOwner struct {
	Booking
	Owner *BookingOwner
}

// ParseBookingStatus validates a raw status value.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected, BookingStatusCompleted:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// ParseServiceType validates a raw service type.
func ParseServiceType(s string) (ServiceType, bool) {
	switch ServiceType(s) {
	case ServiceWedding, ServicePortrait, ServiceEvent, ServiceFamily, ServiceCommercial, ServiceMaternity:
		return ServiceType(s), true
	default:
		return "", false
	}
}

// ParsePackageType validates a raw package type.
func ParsePackageType(s string) (PackageType, bool) {
	switch PackageType(s) {
	case PackageBasic, PackageStandard, PackagePremium:
		return PackageType(s), true
	default:
		return "", false
	}
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusApproved, BookingStatusRejected},
	BookingStatusApproved:  {BookingStatusCompleted, BookingStatusRejected},
	BookingStatusRejected:  {},
	BookingStatusCompleted: {},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	for _, candidate := range bookingTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func (s BookingStatus) IsTerminal() bool {
	next, ok := bookingTransitions[s]
	return ok && len(next) == 0
}

// IsOwnedBy compares owner ids as strings.
func (b *Booking) IsOwnedBy(userID string) bool {
	return userID != "" && b.UserID == userID
}

// IsPending reports whether the booking can still be edited by its owner.
func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}
