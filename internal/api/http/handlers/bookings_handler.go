package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/studio-booking/internal/api/dto"
	"github.com/spec-kit/studio-booking/internal/service"
)

// BookingsHandler serves booking endpoints for clients and admins.
type BookingsHandler struct {
	service *service.BookingService
}

// NewBookingsHandler constructs handler.
func NewBookingsHandler(bookingService *service.BookingService) *BookingsHandler {
	return &BookingsHandler{service: bookingService}
}

// Create POST /api/bookings.
func (h *BookingsHandler) Create(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateBookingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	booking, err := h.service.Create(c.UserContext(), actor, service.BookingCreateInput{
		ServiceType:            req.ServiceType,
		PackageType:            req.PackageType,
		Date:                   req.Date.Time,
		Location:               req.Location,
		AdditionalRequirements: req.AdditionalRequirements,
		Price:                  req.Price,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"booking": dto.NewBookingResponse(booking)})
}

// ListMine GET /api/bookings.
func (h *BookingsHandler) ListMine(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	bookings, err := h.service.ListMine(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, dto.NewBookingResponse(&bookings[i]))
	}
	return c.JSON(fiber.Map{"bookings": items})
}

// Get GET /api/bookings/:id.
func (h *BookingsHandler) Get(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	booking, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"booking": dto.NewBookingResponse(booking)})
}

// Update PATCH /api/bookings/:id.
func (h *BookingsHandler) Update(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateBookingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	booking, err := h.service.Update(c.UserContext(), actor, c.Params("id"), service.BookingUpdateInput{
		ServiceType:            req.ServiceType,
		PackageType:            req.PackageType,
		Date:                   req.Date.TimePtr(),
		Location:               req.Location,
		AdditionalRequirements: req.AdditionalRequirements,
		Price:                  req.Price,
		Status:                 req.Status,
		AdminNotes:             req.AdminNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"booking": dto.NewBookingResponse(booking)})
}

// Delete DELETE /api/bookings/:id.
func (h *BookingsHandler) Delete(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "booking deleted"})
}

// ListAll GET /api/bookings/admin/all.
func (h *BookingsHandler) ListAll(c *fiber.Ctx) error {
	list, err := h.service.ListAll(c.UserContext(), c.Query("status"))
	if err != nil {
		return err
	}
	resp := fiber.Map{"bookings": dto.NewBookingListResponse(list.Bookings)}
	if list.Warning != "" {
		resp["warning"] = list.Warning
	}
	return c.JSON(resp)
}

// UpdateStatus PATCH /api/bookings/admin/status/:id.
func (h *BookingsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateBookingStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	booking, changed, err := h.service.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.AdminNotes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"booking": dto.NewBookingResponse(booking),
		"changed": changed,
	})
}
