package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/studio-booking/internal/api/dto"
	"github.com/spec-kit/studio-booking/internal/service"
)

// AdminHandler serves admin sign-in and user administration.
type AdminHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, userService *service.UserService) *AdminHandler {
	return &AdminHandler{auth: authService, users: userService}
}

// Login POST /api/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	email, err := h.auth.AdminLogin(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(dto.VerificationResponse{
		Success:              true,
		RequiresVerification: true,
		Email:                email,
		Message:              "sign-in code sent",
	})
}

// VerifyOTP POST /api/admin/verify-otp.
func (h *AdminHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.auth.AdminVerifyOTP(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(session.User, session.Tokens, true))
}

// Validate GET /api/admin/validate.
func (h *AdminHandler) Validate(c *fiber.Ctx) error {
	_, principal, err := currentActor(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"isAdmin": true, "user": dto.NewUserResponse(principal.User, true)})
}

// ListUsers GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i], h.auth.IsAdmin(&users[i])))
	}
	return c.JSON(fiber.Map{"users": items})
}

// DeleteUser DELETE /api/admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "user deleted"})
}
