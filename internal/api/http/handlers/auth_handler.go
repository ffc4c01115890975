package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/studio-booking/internal/api/dto"
	"github.com/spec-kit/studio-booking/internal/service"
)

const forgotPasswordMessage = "if an account exists for that email, a reset link has been sent"

// AuthHandler serves client authentication and account endpoints.
type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{auth: authService, users: userService}
}

// Register POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	email, err := h.auth.Register(c.UserContext(), service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.VerificationResponse{
		Success:              true,
		RequiresVerification: true,
		Email:                email,
		Message:              "verification code sent",
	})
}

// VerifyEmail POST /api/auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.auth.VerifyEmail(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(session.User, session.Tokens, session.IsAdmin))
}

// ResendOTP POST /api/auth/resend-otp.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ResendVerification(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "if the account is awaiting verification, a new code has been sent"})
}

// Login POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if result.RequiresVerification {
		return c.Status(http.StatusForbidden).JSON(dto.VerificationResponse{
			RequiresVerification: true,
			Email:                result.Email,
			Message:              "email not verified, a new verification code has been sent",
		})
	}
	s := result.Session
	return c.JSON(dto.NewAuthResponse(s.User, s.Tokens, s.IsAdmin))
}

// Refresh POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAuthResponse(session.User, session.Tokens, session.IsAdmin))
}

// Logout POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), actor.UserID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "logged out"})
}

// ForgotPassword POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: forgotPasswordMessage})
}

// ResetPassword POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ResetPassword(c.UserContext(), req.Email, req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "password has been reset"})
}

// Me GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	_, principal, err := currentActor(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(principal.User, principal.IsAdmin)})
}

// UpdateMe PATCH /api/auth/me.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.UserContext(), actor, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user, actor.IsAdmin)})
}

// ChangePassword POST /api/auth/change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "password changed"})
}

// ChangeEmail POST /api/auth/change-email.
func (h *AuthHandler) ChangeEmail(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ChangeEmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.RequestEmailChange(c.UserContext(), actor.UserID, req.NewEmail); err != nil {
		return err
	}
	return c.JSON(dto.VerificationResponse{
		Success:              true,
		RequiresVerification: true,
		Email:                req.NewEmail,
		Message:              "verification code sent to the new address",
	})
}

// VerifyEmailChange POST /api/auth/verify-email-change.
func (h *AuthHandler) VerifyEmailChange(c *fiber.Ctx) error {
	actor, _, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.VerifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.auth.VerifyEmailChange(c.UserContext(), actor.UserID, req.OTP)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": dto.NewUserResponse(user, h.auth.IsAdmin(user))})
}
