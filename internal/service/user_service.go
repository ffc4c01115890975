package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/auth"
	"github.com/spec-kit/studio-booking/internal/domain"
	"github.com/spec-kit/studio-booking/internal/repository"
	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

const maxNameLength = 100

// UserService manages profiles and admin user administration.
type UserService struct {
	users     repository.UserRepository
	allowlist *auth.AdminAllowlist
	logger    *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, allowlist *auth.AdminAllowlist, logger *zap.Logger) *UserService {
	return &UserService{users: users, allowlist: allowlist, logger: logger}
}

// Profile returns the caller's account.
func (s *UserService) Profile(ctx context.Context, actor Actor) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}

// UpdateProfile renames the caller.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if len([]rune(name)) > maxNameLength {
		return nil, apperrors.NewValidationError("name is too long", map[string]any{"field": "name", "max": maxNameLength})
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	user.Name = name
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}

// ListUsers returns every account, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// DeleteUser removes an account with its bookings and reviews. An admin may
// delete themselves but not another allowlisted admin.
func (s *UserService) DeleteUser(ctx context.Context, actor Actor, targetID string) error {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return mapRepoError(err, "user")
	}
	if target.ID != actor.UserID && s.allowlist.IsAdmin(target.Email) {
		return apperrors.NewForbidden("cannot delete another admin account")
	}
	if err := s.users.Delete(ctx, target.ID); err != nil {
		return mapRepoError(err, "user")
	}
	s.logger.Info("user deleted", zap.String("user_id", target.ID), zap.String("actor_id", actor.UserID))
	return nil
}
