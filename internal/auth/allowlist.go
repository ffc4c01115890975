package auth

import (
	"sort"
	"strings"
)

// AdminAllowlist is the single source of truth for admin authorization.
type AdminAllowlist struct {
	emails map[string]struct{}
}

// NewAdminAllowlist normalizes the configured admin addresses.
func NewAdminAllowlist(emails []string) *AdminAllowlist {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := normalizeEmail(email)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return &AdminAllowlist{emails: set}
}

// IsAdmin reports whether email is allowlisted, ignoring case.
func (a *AdminAllowlist) IsAdmin(email string) bool {
	if a == nil {
		return false
	}
	_, ok := a.emails[normalizeEmail(email)]
	return ok
}

// Recipients lists the admin addresses, sorted.
func (a *AdminAllowlist) Recipients() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.emails))
	for email := range a.emails {
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
