package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/studio-booking/internal/api/dto"
	"github.com/spec-kit/studio-booking/internal/service"
)

// CatalogHandler serves the public price list and its admin management.
type CatalogHandler struct {
	service *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalogService}
}

// ListOffered GET /api/catalog.
func (h *CatalogHandler) ListOffered(c *fiber.Ctx) error {
	entries, err := h.service.ListOffered(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entries": dto.NewCatalogListResponse(entries)})
}

// ListAll GET /api/catalog/admin/all.
func (h *CatalogHandler) ListAll(c *fiber.Ctx) error {
	entries, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entries": dto.NewCatalogListResponse(entries)})
}

// Upsert PUT /api/catalog/admin.
func (h *CatalogHandler) Upsert(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CatalogEntryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	entry, err := h.service.Upsert(c.UserContext(), actor, service.CatalogEntryInput{
		ServiceType: req.ServiceType,
		PackageType: req.PackageType,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Active:      req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entry": dto.NewCatalogEntryResponse(entry)})
}

// Delete DELETE /api/catalog/admin/:id.
func (h *CatalogHandler) Delete(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "catalog entry deleted"})
}
