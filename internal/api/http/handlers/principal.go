package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/studio-booking/internal/api/dto"
	"github.com/spec-kit/studio-booking/internal/auth"
	"github.com/spec-kit/studio-booking/internal/service"
	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

func currentActor(c *fiber.Ctx) (service.Actor, *auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return service.Actor{}, nil, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{UserID: principal.User.ID, IsAdmin: principal.IsAdmin}, principal, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		var fieldErr *dto.FieldError
		if errors.As(err, &fieldErr) {
			return apperrors.NewValidationError("invalid "+fieldErr.Field, map[string]any{
				"field":  fieldErr.Field,
				"reason": fieldErr.Message,
			})
		}
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
