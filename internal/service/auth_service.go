package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/auth"
	"github.com/spec-kit/studio-booking/internal/domain"
	"github.com/spec-kit/studio-booking/internal/events"
	"github.com/spec-kit/studio-booking/internal/mailer"
	"github.com/spec-kit/studio-booking/internal/repository"
	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

const invalidCredentials = "invalid email or password"

var errInvalidRefresh = apperrors.NewUnauthorized("invalid or expired refresh token")

// AuthSettings carries the tunables of the auth flows.
type AuthSettings struct {
	BcryptCost        int
	PasswordMinLength int
	ResetTTL          time.Duration
	FrontendURL       string
}

// AuthDependencies bundles the collaborators of AuthService.
type AuthDependencies struct {
	Users      repository.UserRepository
	Tokens     *auth.TokenManager
	OTP        *auth.OTPEngine
	Lockout    *auth.LockoutGuard
	Allowlist  *auth.AdminAllowlist
	Mailer     mailer.Mailer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// AuthService coordinates the account lifecycle: registration, verification,
// sessions, password recovery, email change and admin sign-in.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	otp        *auth.OTPEngine
	lockout    *auth.LockoutGuard
	allowlist  *auth.AdminAllowlist
	mailer     mailer.Mailer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
	settings   AuthSettings
	dummyHash  string
}

// Session is the outcome of a successful sign-in.
type Session struct {
	User    *domain.User
	Tokens  *domain.TokenPair
	IsAdmin bool
}

// LoginResult is either a session or a request to verify the email first.
type LoginResult struct {
	Session              *Session
	RequiresVerification bool
	Email                string
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// NewAuthService builds the service.
func NewAuthService(settings AuthSettings, deps AuthDependencies) (*AuthService, error) {
	if settings.BcryptCost == 0 {
		settings.BcryptCost = 10
	}
	if settings.ResetTTL <= 0 {
		settings.ResetTTL = time.Hour
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// compared against when the email is unknown
	dummy, err := auth.HashPassword("studio-booking-timing-guard", settings.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		users:      deps.Users,
		tokens:     deps.Tokens,
		otp:        deps.OTP,
		lockout:    deps.Lockout,
		allowlist:  deps.Allowlist,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        now,
		settings:   settings,
		dummyHash:  dummy,
	}, nil
}

// IsAdmin reports whether user is currently on the admin allowlist.
func (s *AuthService) IsAdmin(user *domain.User) bool {
	return user != nil && s.allowlist.IsAdmin(user.Email)
}

// Register creates an unverified account, or re-issues the code for an account
// that never finished verification, and emails the code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return "", apperrors.NewValidationError("name, email and password are required", nil)
	}
	if !auth.ValidEmail(email) {
		return "", apperrors.NewValidationError("invalid email address", map[string]any{"field": "email"})
	}
	if err := s.checkPassword(in.Password); err != nil {
		return "", err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return "", apperrors.NewConflict("email already in use", nil)
	case err == nil:
		if err := s.issueOTP(ctx, existing, domain.OTPPurposeRegistration, existing.Email); err != nil {
			return "", err
		}
		return existing.Email, nil
	case !errors.Is(err, repository.ErrNotFound):
		return "", apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.settings.BcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash}
	code, err := s.otp.Issue(user, domain.OTPPurposeRegistration)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", mapRepoError(err, "user")
	}
	if err := s.sendOTP(ctx, user, email, code, domain.OTPPurposeRegistration); err != nil {
		return "", err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user.Email, nil
}

// VerifyEmail completes registration and signs the user in.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*Session, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, apperrors.NewValidationError("email and otp are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newInvalidOTP("invalid")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.verifyOTP(ctx, user, domain.OTPPurposeRegistration, code); err != nil {
		return nil, err
	}

	session, err := s.startSession(ctx, user, false)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewEvent(events.EventUserVerified, events.Actor{UserID: user.ID},
		events.UserVerifiedPayload{User: events.Recipient{Name: user.Name, Email: user.Email}}))
	return session, nil
}

// ResendVerification re-issues the registration code. The outcome is the same
// whether or not the address belongs to an unverified account.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.NewInternalError(err)
	}
	if user.IsVerified {
		return nil
	}
	return s.issueOTP(ctx, user, domain.OTPPurposeRegistration, user.Email)
}

// Login authenticates with email and password. The lock is checked before the
// password is compared so a locked account never consumes attempts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = auth.ComparePassword(s.dummyHash, password)
			return nil, apperrors.NewUnauthorized(invalidCredentials)
		}
		return nil, apperrors.NewInternalError(err)
	}

	if remaining, _ := s.lockout.CheckLock(user); remaining > 0 {
		return nil, newAccountLocked(ceilMinutes(remaining))
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		locked := s.lockout.RecordAttempt(user, false)
		if err := s.users.Update(ctx, user); err != nil {
			return nil, mapRepoError(err, "user")
		}
		if locked {
			s.logger.Warn("account locked", zap.String("user_id", user.ID))
			return nil, newAccountLocked(ceilMinutes(s.lockout.LockWindow()))
		}
		remaining := s.lockout.RemainingAttempts(user)
		return nil, apperrors.NewDomainError("UNAUTHORIZED",
			fmt.Sprintf("%s, %d attempts remaining before the account is locked", invalidCredentials, remaining),
			http.StatusUnauthorized, map[string]any{"remainingAttempts": remaining})
	}

	s.lockout.RecordAttempt(user, true)
	if !user.IsVerified {
		if err := s.issueOTP(ctx, user, domain.OTPPurposeRegistration, user.Email); err != nil {
			return nil, err
		}
		return &LoginResult{RequiresVerification: true, Email: user.Email}, nil
	}

	session, err := s.startSession(ctx, user, false)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session}, nil
}

// Refresh rotates the refresh token. Only the most recently issued token of a
// user is accepted; every failure looks the same to the client.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperrors.NewValidationError("refreshToken is required", nil)
	}

	claims, err := s.tokens.ParseRefreshToken(raw)
	if err != nil {
		category := "invalid"
		if errors.Is(err, auth.ErrTokenExpired) {
			category = "expired"
		}
		s.logger.Info("refresh rejected", zap.String("reason", category))
		return nil, errInvalidRefresh
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("refresh rejected", zap.String("reason", "user_missing"), zap.String("user_id", claims.UserID))
			return nil, errInvalidRefresh
		}
		return nil, apperrors.NewInternalError(err)
	}
	if user.RefreshTokenHash == nil || !auth.EqualHash(*user.RefreshTokenHash, auth.HashToken(raw)) {
		s.logger.Info("refresh rejected", zap.String("reason", "mismatch"), zap.String("user_id", user.ID))
		return nil, errInvalidRefresh
	}
	if user.RefreshTokenExpiresAt == nil || user.RefreshTokenExpiresAt.Before(s.now()) {
		s.logger.Info("refresh rejected", zap.String("reason", "expired"), zap.String("user_id", user.ID))
		return nil, errInvalidRefresh
	}

	admin := claims.IsAdmin && s.IsAdmin(user)
	session, err := s.startSession(ctx, user, admin)
	if err != nil {
		var de *apperrors.DomainError
		if errors.As(err, &de) && de.HTTPStatus == http.StatusConflict {
			// a concurrent refresh with the same token won
			s.logger.Info("refresh rejected", zap.String("reason", "concurrent_rotation"), zap.String("user_id", user.ID))
			return nil, errInvalidRefresh
		}
		return nil, err
	}
	return session, nil
}

// Logout forgets the stored refresh token. Access tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.mutateUser(ctx, userID, func(user *domain.User) error {
		user.ClearSession()
		return nil
	})
}

// ForgotPassword emails a single-use reset link when the account exists. Callers
// respond identically either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.NewInternalError(err)
	}

	token, err := auth.RandomHex(32)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	expires := s.now().Add(s.settings.ResetTTL)
	user.ResetPasswordToken = &token
	user.ResetPasswordExpires = &expires
	if err := s.users.Update(ctx, user); err != nil {
		return mapRepoError(err, "user")
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordResetIssued, events.Actor{UserID: user.ID},
		events.PasswordResetPayload{
			User: events.Recipient{Name: user.Name, Email: user.Email},
			Link: s.resetLink(user.Email, token),
			TTL:  s.settings.ResetTTL,
		}))
	return nil
}

// ResetPassword consumes a reset token and sets a new password. Existing
// sessions and any lockout are cleared.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, password string) error {
	email = strings.TrimSpace(email)
	token = strings.TrimSpace(token)
	if email == "" || token == "" || password == "" {
		return apperrors.NewValidationError("email, token and password are required", nil)
	}
	if err := s.checkPassword(password); err != nil {
		return err
	}
	invalid := apperrors.NewValidationError("invalid or expired reset token", nil)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return apperrors.NewInternalError(err)
	}
	if user.ResetPasswordToken == nil || user.ResetPasswordExpires == nil ||
		!auth.EqualHash(*user.ResetPasswordToken, token) || user.ResetPasswordExpires.Before(s.now()) {
		return invalid
	}

	hash, err := auth.HashPassword(password, s.settings.BcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	user.ClearPasswordReset()
	user.ClearSession()
	user.FailedLoginAttempts = 0
	user.AccountLocked = false
	user.AccountLockedUntil = nil
	if err := s.users.Update(ctx, user); err != nil {
		return mapRepoError(err, "user")
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordChanged, events.Actor{UserID: user.ID},
		events.PasswordChangedPayload{User: events.Recipient{Name: user.Name, Email: user.Email}}))
	return nil
}

// ChangePassword replaces the password of a signed-in user.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return apperrors.NewValidationError("currentPassword and newPassword are required", nil)
	}
	if err := s.checkPassword(next); err != nil {
		return err
	}

	var recipient events.Recipient
	err := s.mutateUser(ctx, userID, func(user *domain.User) error {
		if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
			return apperrors.NewUnauthorized("current password is incorrect")
		}
		hash, err := auth.HashPassword(next, s.settings.BcryptCost)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
		recipient = events.Recipient{Name: user.Name, Email: user.Email}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewEvent(events.EventPasswordChanged, events.Actor{UserID: userID},
		events.PasswordChangedPayload{User: recipient}))
	return nil
}

// RequestEmailChange parks newEmail on the account and sends a code to it.
func (s *AuthService) RequestEmailChange(ctx context.Context, userID, newEmail string) error {
	newEmail = strings.TrimSpace(newEmail)
	if newEmail == "" {
		return apperrors.NewValidationError("newEmail is required", nil)
	}
	if !auth.ValidEmail(newEmail) {
		return apperrors.NewValidationError("invalid email address", map[string]any{"field": "newEmail"})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapRepoError(err, "user")
	}
	if strings.EqualFold(user.Email, newEmail) {
		return apperrors.NewValidationError("new email must differ from the current email", nil)
	}
	if err := s.ensureEmailUnclaimed(ctx, newEmail, user.ID); err != nil {
		return err
	}

	user.TempEmail = &newEmail
	return s.issueOTP(ctx, user, domain.OTPPurposeEmailChange, newEmail)
}

// VerifyEmailChange commits a pending email change. The address claim is checked
// again here, and a duplicate key on save reverts the pending change.
func (s *AuthService) VerifyEmailChange(ctx context.Context, userID, code string) (*domain.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("otp is required", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	if user.TempEmail == nil {
		return nil, apperrors.NewValidationError("no pending email change", nil)
	}

	if err := s.otp.Verify(user, domain.OTPPurposeEmailChange, code); err != nil {
		if !errors.Is(err, auth.ErrOTPInvalid) {
			// expired or exhausted: the pending change goes with the code
			user.TempEmail = nil
		}
		if saveErr := s.users.Update(ctx, user); saveErr != nil {
			return nil, mapRepoError(saveErr, "user")
		}
		return nil, newInvalidOTP(otpReason(err))
	}

	oldEmail, newEmail := user.Email, *user.TempEmail
	if err := s.ensureEmailUnclaimed(ctx, newEmail, user.ID); err != nil {
		user.TempEmail = nil
		if saveErr := s.users.Update(ctx, user); saveErr != nil {
			s.logger.Warn("revert email change failed", zap.String("user_id", user.ID), zap.Error(saveErr))
		}
		return nil, err
	}

	user.Email = newEmail
	user.TempEmail = nil
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.revertEmailChange(ctx, user.ID)
			return nil, apperrors.NewConflict("email already in use", nil)
		}
		return nil, mapRepoError(err, "user")
	}

	s.publish(ctx, events.NewEvent(events.EventEmailChanged, events.Actor{UserID: user.ID},
		events.EmailChangedPayload{Name: user.Name, OldEmail: oldEmail, NewEmail: newEmail}))
	return user, nil
}

// AdminLogin sends an admin sign-in code to an allowlisted address. No password
// is involved; a verified account is created on first use.
func (s *AuthService) AdminLogin(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperrors.NewValidationError("email is required", nil)
	}
	if !s.allowlist.IsAdmin(email) {
		s.logger.Warn("admin login rejected", zap.String("reason", "not_allowlisted"))
		return "", apperrors.NewForbidden("not authorized as admin")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", apperrors.NewInternalError(err)
	}
	if user == nil {
		user, err = s.createAdminUser(ctx, email)
		if err != nil {
			return "", err
		}
	}
	if err := s.issueOTP(ctx, user, domain.OTPPurposeAdminLogin, user.Email); err != nil {
		return "", err
	}
	return user.Email, nil
}

// AdminVerifyOTP exchanges an admin sign-in code for an admin session.
func (s *AuthService) AdminVerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, apperrors.NewValidationError("email and otp are required", nil)
	}
	if !s.allowlist.IsAdmin(email) {
		return nil, apperrors.NewForbidden("not authorized as admin")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newInvalidOTP("invalid")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.verifyOTP(ctx, user, domain.OTPPurposeAdminLogin, code); err != nil {
		return nil, err
	}
	s.logger.Info("admin signed in", zap.String("user_id", user.ID))
	return s.startSession(ctx, user, true)
}

func (s *AuthService) createAdminUser(ctx context.Context, email string) (*domain.User, error) {
	unusable, err := auth.RandomHex(32)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	hash, err := auth.HashPassword(unusable, s.settings.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash, IsVerified: true}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// created by a concurrent admin login
			existing, getErr := s.users.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, mapRepoError(getErr, "user")
			}
			return existing, nil
		}
		return nil, mapRepoError(err, "user")
	}
	s.logger.Info("admin account created", zap.String("user_id", user.ID))
	return user, nil
}

// startSession issues a token pair and stores the refresh hash on the user.
func (s *AuthService) startSession(ctx context.Context, user *domain.User, admin bool) (*Session, error) {
	pair, err := s.tokens.IssuePair(user.ID, admin)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	hash := auth.HashToken(pair.RefreshToken)
	expires := pair.RefreshExpiresAt
	user.RefreshTokenHash = &hash
	user.RefreshTokenExpiresAt = &expires
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "user")
	}
	return &Session{User: user, Tokens: pair, IsAdmin: s.IsAdmin(user)}, nil
}

// issueOTP stores a fresh code on the user and mails it to address. Delivery is
// the point of the request, so a mail failure fails the call.
func (s *AuthService) issueOTP(ctx context.Context, user *domain.User, purpose domain.OTPPurpose, address string) error {
	code, err := s.otp.Issue(user, purpose)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return mapRepoError(err, "user")
	}
	return s.sendOTP(ctx, user, address, code, purpose)
}

func (s *AuthService) sendOTP(ctx context.Context, user *domain.User, address, code string, purpose domain.OTPPurpose) error {
	msg := mailer.OTPMessage(address, user.Name, code, purpose, s.otp.TTL())
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("send otp failed", zap.String("user_id", user.ID), zap.String("purpose", string(purpose)), zap.Error(err))
		return apperrors.NewInternalError(fmt.Errorf("send otp: %w", err))
	}
	return nil
}

// verifyOTP checks code and persists the attempt outcome before reporting it.
func (s *AuthService) verifyOTP(ctx context.Context, user *domain.User, purpose domain.OTPPurpose, code string) error {
	verifyErr := s.otp.Verify(user, purpose, code)
	if verifyErr == nil {
		return nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		return mapRepoError(err, "user")
	}
	return newInvalidOTP(otpReason(verifyErr))
}

func otpReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrOTPExpired):
		return "expired"
	case errors.Is(err, auth.ErrOTPExhausted):
		return "attempts_exhausted"
	default:
		return "invalid"
	}
}

func (s *AuthService) ensureEmailUnclaimed(ctx context.Context, email, ownerID string) error {
	other, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && other.ID != ownerID:
		return apperrors.NewConflict("email already in use", nil)
	case err == nil, errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return apperrors.NewInternalError(err)
	}
}

func (s *AuthService) revertEmailChange(ctx context.Context, userID string) {
	err := s.mutateUser(ctx, userID, func(user *domain.User) error {
		user.TempEmail = nil
		return nil
	})
	if err != nil {
		s.logger.Warn("revert email change failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// mutateUser loads, changes and saves a user, retrying once on a version conflict.
func (s *AuthService) mutateUser(ctx context.Context, userID string, change func(*domain.User) error) error {
	for attempt := 0; ; attempt++ {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return mapRepoError(err, "user")
		}
		if err := change(user); err != nil {
			return err
		}
		err = s.users.Update(ctx, user)
		if errors.Is(err, repository.ErrStaleVersion) && attempt == 0 {
			continue
		}
		return mapRepoError(err, "user")
	}
}

func (s *AuthService) checkPassword(password string) error {
	if err := auth.ValidatePasswordStrength(password, s.settings.PasswordMinLength); err != nil {
		return apperrors.NewValidationError(
			fmt.Sprintf("password must be at least %d characters and contain an uppercase letter, a lowercase letter and a digit", s.settings.PasswordMinLength),
			map[string]any{"field": "password"})
	}
	return nil
}

func (s *AuthService) resetLink(email, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return s.settings.FrontendURL + "/reset-password?" + q.Encode()
}

// publish hands an event to subscribers and logs handler failures.
func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func ceilMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}
