// Package identity resolves bearer credentials into an authenticated
// principal and exposes the auth middleware used by every API route.
package identity

import "strings"

// Role is the privilege level attached to a profile.
type Role string

const (
	// RoleCitizen may only reach records it owns.
	RoleCitizen Role = "citizen"
	// RoleGovernment may reach and triage all records.
	RoleGovernment Role = "government"
)

// ParseRole normalizes a stored role value. Unknown values report false and
// must be treated as unset, never as a privileged default.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleCitizen:
		return RoleCitizen, true
	case RoleGovernment:
		return RoleGovernment, true
	}
	return "", false
}

// Principal is the authenticated identity and role resolved once per request.
// It is immutable for the request's lifetime and never persisted.
type Principal struct {
	UserID string
	Role   Role
}

// Government reports whether the principal holds the government role.
func (p Principal) Government() bool {
	return p.Role == RoleGovernment
}
