package dto

import (
	"time"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// CatalogEntryRequest payload for creating or replacing an offer.
type CatalogEntryRequest struct {
	ServiceType string  `json:"serviceType"`
	PackageType string  `json:"packageType"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Active      *bool   `json:"active"`
}

// CatalogEntryResponse view.
type CatalogEntryResponse struct {
	ID          string             `json:"id"`
	ServiceType domain.ServiceType `json:"serviceType"`
	PackageType domain.PackageType `json:"packageType"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Price       float64            `json:"price"`
	Active      bool               `json:"active"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func NewCatalogEntryResponse(e *domain.CatalogEntry) CatalogEntryResponse {
	return CatalogEntryResponse{
		ID:          e.ID,
		ServiceType: e.ServiceType,
		PackageType: e.PackageType,
		Title:       e.Title,
		Description: e.Description,
		Price:       e.Price,
		Active:      e.Active,
		UpdatedAt:   e.UpdatedAt,
	}
}

func NewCatalogListResponse(entries []domain.CatalogEntry) []CatalogEntryResponse {
	out := make([]CatalogEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, NewCatalogEntryResponse(&entries[i]))
	}
	return out
}
