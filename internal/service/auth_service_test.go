package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/studio-booking/internal/auth"
	"github.com/spec-kit/studio-booking/internal/domain"
)

func TestRegisterVerifyLoginScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	email, err := f.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: goodPass})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
	code := f.lastOTP("a@x.com")

	_, err = f.auth.VerifyEmail(ctx, "a@x.com", wrongOTP(code))
	assert.Equal(t, 400, errStatus(err))
	assert.Equal(t, "INVALID_OTP", errCode(err))

	session, err := f.auth.VerifyEmail(ctx, "a@x.com", code)
	require.NoError(t, err)
	assert.True(t, session.User.IsVerified)
	assert.NotEmpty(t, session.Tokens.AccessToken)
	assert.NotEmpty(t, session.Tokens.RefreshToken)
	assert.False(t, session.IsAdmin)
	assert.Contains(t, f.outboxKinds(), domain.NotificationWelcome)

	_, err = f.auth.VerifyEmail(ctx, "a@x.com", code)
	assert.Equal(t, "INVALID_OTP", errCode(err), "a code verifies exactly once")

	result, err := f.auth.Login(ctx, "a@x.com", goodPass)
	require.NoError(t, err)
	assert.False(t, result.RequiresVerification)
	require.NotNil(t, result.Session)
	assert.NotEmpty(t, result.Session.Tokens.AccessToken)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "Pw1"})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	_, err = f.auth.Register(ctx, RegisterInput{Name: "A", Email: "not-an-email", Password: goodPass})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	_, err = f.auth.Register(ctx, RegisterInput{Email: "a@x.com", Password: goodPass})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	assert.Empty(t, f.mail.Sent())
}

func TestRegisterExistingAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: goodPass})
	require.NoError(t, err)
	first := f.lastOTP("a@x.com")

	f.now = f.now.Add(time.Minute)
	_, err = f.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: goodPass})
	require.NoError(t, err, "unverified accounts get a new code")
	assert.Len(t, f.mail.Sent(), 2)
	second := f.lastOTP("a@x.com")
	if first != second {
		_, err = f.auth.VerifyEmail(ctx, "a@x.com", first)
		assert.Error(t, err, "the previous code is replaced")
	}

	_, err = f.auth.VerifyEmail(ctx, "a@x.com", second)
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: goodPass})
	assert.Equal(t, 409, errStatus(err))
}

func TestRegisterFailsWhenOTPMailFails(t *testing.T) {
	f := newFixture(t)
	f.mail.SetErr(errors.New("smtp down"))
	_, err := f.auth.Register(context.Background(), RegisterInput{Name: "A", Email: "a@x.com", Password: goodPass})
	assert.Equal(t, 500, errStatus(err))
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: goodPass})
	require.NoError(t, err)
	code := f.lastOTP("a@x.com")

	f.now = f.now.Add(11 * time.Minute)
	_, err = f.auth.VerifyEmail(ctx, "a@x.com", code)
	assert.Equal(t, "INVALID_OTP", errCode(err))

	user, err := f.store.Users().GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
	assert.Nil(t, user.OTPCode)
}

func TestVerifyEmailAttemptCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: goodPass})
	require.NoError(t, err)
	code := f.lastOTP("a@x.com")

	for i := 0; i < 5; i++ {
		_, err = f.auth.VerifyEmail(ctx, "a@x.com", wrongOTP(code))
		require.Error(t, err)
	}
	_, err = f.auth.VerifyEmail(ctx, "a@x.com", code)
	assert.Equal(t, "INVALID_OTP", errCode(err), "code is burned after five wrong guesses")

	require.NoError(t, f.auth.ResendVerification(ctx, "a@x.com"))
	_, err = f.auth.VerifyEmail(ctx, "a@x.com", f.lastOTP("a@x.com"))
	assert.NoError(t, err)
}

func TestLoginUnverifiedRequiresVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: goodPass})
	require.NoError(t, err)

	result, err := f.auth.Login(ctx, "a@x.com", goodPass)
	require.NoError(t, err)
	assert.True(t, result.RequiresVerification)
	assert.Nil(t, result.Session)
	assert.Len(t, f.mail.Sent(), 2, "login re-issues the code")
}

func TestLoginLockoutScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedUser("B", "b@x.com")

	for i := 1; i <= 4; i++ {
		_, err := f.auth.Login(ctx, "b@x.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, 401, errStatus(err))
		details := errDetails(err)
		assert.Equal(t, 5-i, details["remainingAttempts"])
	}

	_, err := f.auth.Login(ctx, "b@x.com", "wrong")
	assert.Equal(t, "ACCOUNT_LOCKED", errCode(err), "fifth failure locks the account")

	_, err = f.auth.Login(ctx, "b@x.com", goodPass)
	assert.Equal(t, "ACCOUNT_LOCKED", errCode(err), "correct password is still rejected while locked")
	user, err := f.store.Users().GetByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, 5, user.FailedLoginAttempts, "locked attempts are not recorded")

	f.now = f.now.Add(29 * time.Minute)
	_, err = f.auth.Login(ctx, "b@x.com", goodPass)
	assert.Equal(t, "ACCOUNT_LOCKED", errCode(err))
	assert.Equal(t, 1, errDetails(err)["remainingMinutes"])

	f.now = f.now.Add(2 * time.Minute)
	result, err := f.auth.Login(ctx, "b@x.com", goodPass)
	require.NoError(t, err)
	require.NotNil(t, result.Session)
	assert.Zero(t, result.Session.User.FailedLoginAttempts)
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedUser("C", "c@x.com")

	for i := 0; i < 3; i++ {
		_, err := f.auth.Login(ctx, "c@x.com", "wrong")
		require.Error(t, err)
	}
	_, err := f.auth.Login(ctx, "c@x.com", goodPass)
	require.NoError(t, err)

	user, err := f.store.Users().GetByEmail(ctx, "c@x.com")
	require.NoError(t, err)
	assert.Zero(t, user.FailedLoginAttempts)
	assert.NotNil(t, user.LastLogin)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)
	f.verifiedUser("C", "c@x.com")

	_, unknown := f.auth.Login(context.Background(), "nobody@x.com", goodPass)
	assert.Equal(t, 401, errStatus(unknown))
	assert.Equal(t, "invalid email or password", unknown.Error())
}

func TestRefreshRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.verifiedUser("D", "d@x.com")
	first := session.Tokens.RefreshToken

	rotated, err := f.auth.Refresh(ctx, first)
	require.NoError(t, err)
	assert.NotEqual(t, first, rotated.Tokens.RefreshToken)

	_, err = f.auth.Refresh(ctx, first)
	assert.Equal(t, 401, errStatus(err), "rotated-away token is rejected")

	_, err = f.auth.Refresh(ctx, rotated.Tokens.RefreshToken)
	assert.NoError(t, err)

	_, err = f.auth.Refresh(ctx, "garbage")
	assert.Equal(t, 401, errStatus(err))
}

func TestRefreshAfterExpiryAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.verifiedUser("E", "e@x.com")

	require.NoError(t, f.auth.Logout(ctx, session.User.ID))
	_, err := f.auth.Refresh(ctx, session.Tokens.RefreshToken)
	assert.Equal(t, 401, errStatus(err), "logout revokes the refresh token")

	result, err := f.auth.Login(ctx, "e@x.com", goodPass)
	require.NoError(t, err)
	f.now = f.now.Add(8 * 24 * time.Hour)
	_, err = f.auth.Refresh(ctx, result.Session.Tokens.RefreshToken)
	assert.Equal(t, 401, errStatus(err))
}

func TestForgotPasswordIsUniform(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedUser("F", "f@x.com")
	before := len(f.store.Outbox())

	assert.NoError(t, f.auth.ForgotPassword(ctx, "missing@x.com"))
	assert.Len(t, f.store.Outbox(), before, "no mail for unknown accounts")

	assert.NoError(t, f.auth.ForgotPassword(ctx, "f@x.com"))
	assert.Contains(t, f.outboxKinds(), domain.NotificationPasswordReset)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.verifiedUser("G", "g@x.com")
	require.NoError(t, f.auth.ForgotPassword(ctx, "g@x.com"))

	var link string
	for _, n := range f.store.Outbox() {
		if n.Kind == domain.NotificationPasswordReset {
			for _, field := range strings.Fields(n.TextBody) {
				if strings.HasPrefix(field, "https://studio.test/reset-password?") {
					link = field
				}
			}
		}
	}
	require.NotEmpty(t, link)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	assert.Len(t, token, 64)

	err = f.auth.ResetPassword(ctx, "g@x.com", token, "weak")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	err = f.auth.ResetPassword(ctx, "g@x.com", strings.Repeat("0", 64), "NewPassw0rd")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	require.NoError(t, f.auth.ResetPassword(ctx, "g@x.com", token, "NewPassw0rd"))
	err = f.auth.ResetPassword(ctx, "g@x.com", token, "OtherPassw0rd")
	assert.Error(t, err, "reset tokens are single use")

	_, err = f.auth.Login(ctx, "g@x.com", goodPass)
	assert.Equal(t, 401, errStatus(err))
	_, err = f.auth.Login(ctx, "g@x.com", "NewPassw0rd")
	assert.NoError(t, err)

	_, err = f.auth.Refresh(ctx, session.Tokens.RefreshToken)
	assert.Error(t, err, "reset revokes sessions")
}

func TestResetPasswordExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedUser("H", "h@x.com")
	require.NoError(t, f.auth.ForgotPassword(ctx, "h@x.com"))
	user, err := f.store.Users().GetByEmail(ctx, "h@x.com")
	require.NoError(t, err)

	f.now = f.now.Add(61 * time.Minute)
	err = f.auth.ResetPassword(ctx, "h@x.com", *user.ResetPasswordToken, "NewPassw0rd")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.verifiedUser("I", "i@x.com")

	err := f.auth.ChangePassword(ctx, session.User.ID, "wrong", "NewPassw0rd")
	assert.Equal(t, 401, errStatus(err))
	require.NoError(t, f.auth.ChangePassword(ctx, session.User.ID, goodPass, "NewPassw0rd"))
	assert.Contains(t, f.outboxKinds(), domain.NotificationPasswordChanged)

	_, err = f.auth.Login(ctx, "i@x.com", "NewPassw0rd")
	assert.NoError(t, err)
}

func TestEmailChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.verifiedUser("J", "j@x.com")
	f.verifiedUser("K", "k@x.com")

	err := f.auth.RequestEmailChange(ctx, session.User.ID, "k@x.com")
	assert.Equal(t, 409, errStatus(err))
	err = f.auth.RequestEmailChange(ctx, session.User.ID, "J@x.com")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	require.NoError(t, f.auth.RequestEmailChange(ctx, session.User.ID, "new@x.com"))
	code := f.lastOTP("new@x.com")

	_, err = f.auth.VerifyEmailChange(ctx, session.User.ID, wrongOTP(code))
	assert.Equal(t, "INVALID_OTP", errCode(err))

	user, err := f.auth.VerifyEmailChange(ctx, session.User.ID, code)
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", user.Email)
	assert.Nil(t, user.TempEmail)
	assert.True(t, user.IsVerified)

	var recipients []string
	for _, n := range f.store.Outbox() {
		if n.Kind == domain.NotificationEmailChanged {
			recipients = append(recipients, n.Recipient)
		}
	}
	assert.ElementsMatch(t, []string{"j@x.com", "new@x.com"}, recipients)
}

func TestEmailChangeLosesRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.verifiedUser("L", "l@x.com")

	require.NoError(t, f.auth.RequestEmailChange(ctx, session.User.ID, "taken@x.com"))
	code := f.lastOTP("taken@x.com")

	// someone else claims the address before the code is entered
	f.verifiedUser("M", "taken@x.com")

	_, err := f.auth.VerifyEmailChange(ctx, session.User.ID, code)
	assert.Equal(t, 409, errStatus(err))
	user, err := f.store.Users().GetByID(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "l@x.com", user.Email)
	assert.Nil(t, user.TempEmail)
}

func TestEmailChangeCodeDoesNotVerifyRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Name: "N", Email: "n@x.com", Password: goodPass})
	require.NoError(t, err)
	user, err := f.store.Users().GetByEmail(ctx, "n@x.com")
	require.NoError(t, err)

	require.NoError(t, f.auth.RequestEmailChange(ctx, user.ID, "n2@x.com"))
	_, err = f.auth.VerifyEmail(ctx, "n@x.com", f.lastOTP("n2@x.com"))
	assert.Equal(t, "INVALID_OTP", errCode(err))

	_, err = f.auth.VerifyEmailChange(ctx, user.ID, f.lastOTP("n2@x.com"))
	require.NoError(t, err)
	user, err = f.store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
}

func TestAdminLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.AdminLogin(ctx, "intruder@x.com")
	assert.Equal(t, 403, errStatus(err))
	assert.Empty(t, f.mail.Sent(), "no code is issued for non-admins")

	_, err = f.auth.AdminLogin(ctx, adminEmail)
	require.NoError(t, err)
	user, err := f.store.Users().GetByEmail(ctx, adminEmail)
	require.NoError(t, err)
	assert.True(t, user.IsVerified, "admin accounts are created verified")

	_, err = f.auth.AdminVerifyOTP(ctx, adminEmail, wrongOTP(f.lastOTP(adminEmail)))
	assert.Equal(t, "INVALID_OTP", errCode(err))

	session, err := f.auth.AdminVerifyOTP(ctx, adminEmail, f.lastOTP(adminEmail))
	require.NoError(t, err)
	assert.True(t, session.IsAdmin)
	assert.Equal(t, f.now.Add(24*time.Hour), session.Tokens.AccessExpiresAt)

	tokens := auth.NewTokenManager(auth.TokenSettings{AccessSecret: "access", RefreshSecret: "refresh"}).
		WithClock(func() time.Time { return f.now })
	claims, err := tokens.ParseAccessToken(session.Tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)

	_, err = f.auth.Login(ctx, adminEmail, "anything")
	assert.Equal(t, 401, errStatus(err), "admin accounts have no usable password")
}

func TestEmailMatchingIgnoresCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedUser("P", "Pat@x.com")

	_, err := f.auth.Register(ctx, RegisterInput{Name: "P2", Email: "pat@X.com", Password: goodPass})
	assert.Equal(t, 409, errStatus(err))

	result, err := f.auth.Login(ctx, "PAT@x.com", goodPass)
	require.NoError(t, err)
	assert.Equal(t, "Pat@x.com", result.Session.User.Email, "stored casing is preserved")
}
