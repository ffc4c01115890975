package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

// RequireVerified ensures the caller has completed email verification.
// Allowlisted admins are created verified and pass as well.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.IsVerified && !principal.IsAdmin {
			return apperrors.NewForbidden("email verification required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller's current email is on the admin allowlist.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.IsAdmin {
			return apperrors.NewForbidden("admin access required")
		}
		return c.Next()
	}
}
