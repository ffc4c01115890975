package domain

import "time"

// User is the persisted account record. Admin status is not stored here; it is
// derived from the admin allowlist on every request.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsVerified   bool

	// Pending email change target, set while an email_change OTP is outstanding.
	TempEmail *string

	OTPCode      *string
	OTPPurpose   *OTPPurpose
	OTPExpiresAt *time.Time
	OTPAttempts  int

	RefreshTokenHash      *string
	RefreshTokenExpiresAt *time.Time

	ResetPasswordToken   *string
	ResetPasswordExpires *time.Time

	FailedLoginAttempts int
	AccountLocked       bool
	AccountLockedUntil  *time.Time
	LastLogin           *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClearOTP drops any stored one-time code.
func (u *User) ClearOTP() {
	u.OTPCode = nil
	u.OTPPurpose = nil
	u.OTPExpiresAt = nil
	u.OTPAttempts = 0
}

// ClearSession forgets the stored refresh token hash.
func (u *User) ClearSession() {
	u.RefreshTokenHash = nil
	u.RefreshTokenExpiresAt = nil
}

// ClearPasswordReset drops a pending reset token.
func (u *User) ClearPasswordReset() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpires = nil
}
