package domain

// OTPPurpose tags a one-time code with the flow that issued it.
type OTPPurpose string

const (
	OTPPurposeRegistration OTPPurpose = "registration"
	OTPPurposeAdminLogin   OTPPurpose = "admin_login"
	OTPPurposeEmailChange  OTPPurpose = "email_change"
)

// Valid reports whether p is a known purpose.
func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPPurposeRegistration, OTPPurposeAdminLogin, OTPPurposeEmailChange:
		return true
	default:
		return false
	}
}
