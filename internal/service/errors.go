package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/studio-booking/internal/repository"
	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}

func newInvalidOTP(reason string) error {
	return apperrors.NewDomainError("INVALID_OTP", "invalid or expired verification code", http.StatusBadRequest,
		map[string]any{"reason": reason})
}

func newAccountLocked(remainingMinutes int) error {
	return apperrors.NewDomainError("ACCOUNT_LOCKED",
		fmt.Sprintf("account locked due to too many failed login attempts, try again in %d minutes", remainingMinutes),
		http.StatusForbidden,
		map[string]any{"remainingMinutes": remainingMinutes})
}

// mapRepoError translates repository sentinels for resource into DomainErrors.
func mapRepoError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.NewConflict("email already in use", nil)
	case errors.Is(err, repository.ErrStaleVersion):
		return apperrors.NewConflict(resource+" was modified by another request, please retry", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
