package models

import "strings"

// Role is the application-level role stored on a Profile. It gates access to
// the provider and admin areas.
type Role string

const (
	RoleParent   Role = "parent"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// ParseRole narrows an untyped role value from the record store into the
// closed enum. Unknown or empty values fall back to parent, the least
// privileged role.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleProvider:
		return RoleProvider
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleParent
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleProvider, RoleAdmin:
		return true
	}
	return false
}
