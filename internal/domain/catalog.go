package domain

import "time"

// CatalogEntry is one bookable offer: a service at a package tier with its
// list price. Inactive entries are kept but cannot be booked.
type CatalogEntry struct {
	ID          string
	ServiceType ServiceType
	PackageType PackageType
	Title       string
	Description string
	Price       float64
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
