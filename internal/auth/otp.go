package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/spec-kit/studio-booking/internal/domain"
)

var (
	// ErrOTPInvalid covers a missing code, a purpose mismatch and a wrong guess.
	ErrOTPInvalid = errors.New("invalid verification code")
	// ErrOTPExpired is returned when the stored code has expired.
	ErrOTPExpired = errors.New("verification code expired")
	// ErrOTPExhausted is returned when the guess budget for a code is spent.
	ErrOTPExhausted = errors.New("too many invalid attempts, request a new code")
)

var otpSpace = big.NewInt(1_000_000)

// OTPEngine issues and checks six digit one-time codes stored on the user record.
type OTPEngine struct {
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	random      io.Reader
}

// NewOTPEngine builds an engine; ttl defaults to 10 minutes and maxAttempts to 5.
func NewOTPEngine(ttl time.Duration, maxAttempts int) *OTPEngine {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &OTPEngine{ttl: ttl, maxAttempts: maxAttempts, now: time.Now, random: rand.Reader}
}

// WithClock overrides the time source; used by tests.
func (e *OTPEngine) WithClock(now func() time.Time) *OTPEngine {
	e.now = now
	return e
}

// TTL returns the code lifetime.
func (e *OTPEngine) TTL() time.Duration {
	return e.ttl
}

// Issue generates a code for purpose and stores it on the user, replacing any previous one.
// The caller persists the user and delivers the returned code.
func (e *OTPEngine) Issue(user *domain.User, purpose domain.OTPPurpose) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("unknown otp purpose %q", purpose)
	}
	n, err := rand.Int(e.random, otpSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	expires := e.now().Add(e.ttl)

	user.OTPCode = &code
	user.OTPPurpose = &purpose
	user.OTPExpiresAt = &expires
	user.OTPAttempts = 0
	return code, nil
}

// Verify checks candidate against the stored code for purpose. It mutates the user in
// every outcome except a missing code, so the caller must persist the record.
// On success only the state owned by the purpose changes: registration marks the
// account verified, the other purposes leave verification alone.
func (e *OTPEngine) Verify(user *domain.User, purpose domain.OTPPurpose, candidate string) error {
	if user.OTPCode == nil || user.OTPExpiresAt == nil || user.OTPPurpose == nil {
		return ErrOTPInvalid
	}
	if *user.OTPPurpose != purpose {
		return ErrOTPInvalid
	}
	if user.OTPExpiresAt.Before(e.now()) {
		user.ClearOTP()
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTPCode), []byte(candidate)) != 1 {
		user.OTPAttempts++
		if user.OTPAttempts >= e.maxAttempts {
			user.ClearOTP()
			return ErrOTPExhausted
		}
		return ErrOTPInvalid
	}

	user.ClearOTP()
	if purpose == domain.OTPPurposeRegistration {
		user.IsVerified = true
	}
	return nil
}
