package dto

import (
	"time"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest is used by registration, admin login and resend.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// EmailRequest carries a single address.
type EmailRequest struct {
	Email string `json:"email"`
}

// RefreshRequest payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangeEmailRequest payload.
type ChangeEmailRequest struct {
	NewEmail string `json:"newEmail"`
}

// UpdateProfileRequest payload.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// UserResponse is the sanitized account view. Secrets and OTP state never
// leave the server.
type UserResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	IsVerified bool       `json:"isVerified"`
	IsAdmin    bool       `json:"isAdmin"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

// AuthResponse is returned by every endpoint that starts a session.
type AuthResponse struct {
	Success          bool         `json:"success"`
	Token            string       `json:"token"`
	RefreshToken     string       `json:"refreshToken"`
	ExpiresAt        time.Time    `json:"expiresAt"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt"`
	User             UserResponse `json:"user"`
}

// VerificationResponse tells the client an OTP was sent.
type VerificationResponse struct {
	Success              bool   `json:"success"`
	RequiresVerification bool   `json:"requiresVerification"`
	Email                string `json:"email"`
	Message              string `json:"message,omitempty"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewUserResponse sanitizes a user.
func NewUserResponse(u *domain.User, isAdmin bool) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		IsAdmin:    isAdmin,
		CreatedAt:  u.CreatedAt,
		LastLogin:  u.LastLogin,
	}
}

// NewAuthResponse renders a session.
func NewAuthResponse(u *domain.User, tokens *domain.TokenPair, isAdmin bool) AuthResponse {
	return AuthResponse{
		Success:          true,
		Token:            tokens.AccessToken,
		RefreshToken:     tokens.RefreshToken,
		ExpiresAt:        tokens.AccessExpiresAt,
		RefreshExpiresAt: tokens.RefreshExpiresAt,
		User:             NewUserResponse(u, isAdmin),
	}
}
