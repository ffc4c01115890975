package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/auth"
	"github.com/spec-kit/studio-booking/internal/config"
	"github.com/spec-kit/studio-booking/internal/domain"
	"github.com/spec-kit/studio-booking/internal/events"
	"github.com/spec-kit/studio-booking/internal/mailer"
	"github.com/spec-kit/studio-booking/internal/repository/memory"
	apperrors "github.com/spec-kit/studio-booking/pkg/util/errorutil"
)

const (
	adminEmail = "owner@studio.test"
	goodPass   = "Passw0rd!"
)

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

type fixture struct {
	t        *testing.T
	now      time.Time
	store    *memory.Store
	mail     *mailer.CaptureMailer
	auth     *AuthService
	users    *UserService
	bookings *BookingService
	reviews  *ReviewService
	catalog  *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.store = memory.NewStore().WithClock(clock)
	f.mail = &mailer.CaptureMailer{}
	allowlist := auth.NewAdminAllowlist([]string{adminEmail})
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()

	NewNotificationService(f.store.Notifications(), dispatcher, allowlist, logger, config.NotificationConfig{MaxAttempts: 3}).RegisterHandlers()

	tokens := auth.NewTokenManager(auth.TokenSettings{
		AccessSecret:   "access",
		RefreshSecret:  "refresh",
		AccessTTL:      15 * time.Minute,
		AdminAccessTTL: 24 * time.Hour,
		RefreshTTL:     7 * 24 * time.Hour,
	}).WithClock(clock)

	svc, err := NewAuthService(AuthSettings{
		BcryptCost:        4,
		PasswordMinLength: 8,
		ResetTTL:          time.Hour,
		FrontendURL:       "https://studio.test",
	}, AuthDependencies{
		Users:      f.store.Users(),
		Tokens:     tokens,
		OTP:        auth.NewOTPEngine(10*time.Minute, 5).WithClock(clock),
		Lockout:    auth.NewLockoutGuard(5, 30*time.Minute).WithClock(clock),
		Allowlist:  allowlist,
		Mailer:     f.mail,
		Dispatcher: dispatcher,
		Logger:     logger,
		Now:        clock,
	})
	require.NoError(t, err)
	f.auth = svc
	f.users = NewUserService(f.store.Users(), allowlist, logger)
	f.bookings = NewBookingService(BookingDependencies{
		BookingRepo: f.store.Bookings(),
		UserRepo:    f.store.Users(),
		Catalog:     f.store.Catalog(),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	f.catalog = NewCatalogService(f.store.Catalog(), logger)
	f.reviews = NewReviewService(f.store.Reviews(), f.store.Bookings(), logger)
	return f
}

// lastOTP returns the code in the newest email sent to address.
func (f *fixture) lastOTP(address string) string {
	f.t.Helper()
	msg, ok := f.mail.Last(address)
	require.True(f.t, ok, "no mail sent to %s", address)
	code := otpPattern.FindString(msg.Text)
	require.NotEmpty(f.t, code)
	return code
}

// verifiedUser registers and verifies an account.
func (f *fixture) verifiedUser(name, email string) *Session {
	f.t.Helper()
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Name: name, Email: email, Password: goodPass})
	require.NoError(f.t, err)
	session, err := f.auth.VerifyEmail(ctx, email, f.lastOTP(email))
	require.NoError(f.t, err)
	return session
}

func (f *fixture) outboxKinds() []domain.NotificationKind {
	var kinds []domain.NotificationKind
	for _, n := range f.store.Outbox() {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

func errCode(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.ToDomainError(err).Code
}

func errStatus(err error) int {
	if err == nil {
		return 0
	}
	return apperrors.ToDomainError(err).HTTPStatus
}

func wrongOTP(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func errDetails(err error) map[string]any {
	if err == nil {
		return nil
	}
	return apperrors.ToDomainError(err).Details
}
