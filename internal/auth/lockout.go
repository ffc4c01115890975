package auth

import (
	"time"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// LockoutGuard tracks failed logins on the user record and enforces a temporary lock.
type LockoutGuard struct {
	threshold int
	window    time.Duration
	now       func() time.Time
}

// NewLockoutGuard builds a guard; defaults are 5 failures and 30 minutes.
func NewLockoutGuard(threshold int, window time.Duration) *LockoutGuard {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &LockoutGuard{threshold: threshold, window: window, now: time.Now}
}

// WithClock overrides the time source; used by tests.
func (g *LockoutGuard) WithClock(now func() time.Time) *LockoutGuard {
	g.now = now
	return g
}

// CheckLock reports whether the account is currently locked and for how long.
// An elapsed lock is cleared in place (counter reset) and reported as unlocked;
// the second return value tells the caller the user changed and needs saving.
func (g *LockoutGuard) CheckLock(user *domain.User) (remaining time.Duration, changed bool) {
	if !user.AccountLocked {
		return 0, false
	}
	now := g.now()
	if user.AccountLockedUntil != nil && user.AccountLockedUntil.After(now) {
		return user.AccountLockedUntil.Sub(now), false
	}
	user.AccountLocked = false
	user.AccountLockedUntil = nil
	user.FailedLoginAttempts = 0
	return 0, true
}

// RecordAttempt updates counters after a password check and reports whether
// the account is now locked.
func (g *LockoutGuard) RecordAttempt(user *domain.User, success bool) bool {
	now := g.now()
	if success {
		user.FailedLoginAttempts = 0
		user.AccountLocked = false
		user.AccountLockedUntil = nil
		user.LastLogin = &now
		return false
	}

	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= g.threshold {
		until := now.Add(g.window)
		user.AccountLocked = true
		user.AccountLockedUntil = &until
		return true
	}
	return false
}

// RemainingAttempts is max(0, threshold - failures).
func (g *LockoutGuard) RemainingAttempts(user *domain.User) int {
	remaining := g.threshold - user.FailedLoginAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LockWindow returns the lock duration.
func (g *LockoutGuard) LockWindow() time.Duration {
	return g.window
}
