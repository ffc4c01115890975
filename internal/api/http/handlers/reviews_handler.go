package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/studio-booking/internal/api/dto"
	"github.com/spec-kit/studio-booking/internal/service"
	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

// ReviewsHandler serves public reviews and their moderation.
type ReviewsHandler struct {
	service *service.ReviewService
}

// NewReviewsHandler constructs handler.
func NewReviewsHandler(reviewService *service.ReviewService) *ReviewsHandler {
	return &ReviewsHandler{service: reviewService}
}

// ListPublic GET /api/reviews.
func (h *ReviewsHandler) ListPublic(c *fiber.Ctx) error {
	reviews, err := h.service.ListPublic(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reviews": dto.NewReviewListResponse(reviews)})
}

// Create POST /api/reviews.
func (h *ReviewsHandler) Create(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	review, err := h.service.Create(c.UserContext(), actor, service.ReviewInput{
		Rating:    req.Rating,
		Comment:   req.Comment,
		BookingID: req.BookingID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"review": dto.NewReviewResponse(review)})
}

// Delete DELETE /api/reviews/:id.
func (h *ReviewsHandler) Delete(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "review deleted"})
}

// ListAll GET /api/reviews/admin/all.
func (h *ReviewsHandler) ListAll(c *fiber.Ctx) error {
	reviews, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reviews": dto.NewReviewListResponse(reviews)})
}

// SetApproval PATCH /api/reviews/admin/:id.
func (h *ReviewsHandler) SetApproval(c *fiber.Ctx) error {
	var req dto.ReviewApprovalRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Approved == nil {
		return apperrors.NewValidationError("approved is required", map[string]any{"field": "approved"})
	}
	review, err := h.service.SetApproval(c.UserContext(), c.Params("id"), *req.Approved)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"review": dto.NewReviewResponse(review)})
}
