// Package identity defines the authenticated caller and its role.
package identity

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// ParseRole converts a stored or transmitted role name into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// String returns the role name.
func (r Role) String() string { return string(r) }

// IsAdministrative reports whether the role may use back-office routes.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Identity is the caller resolved from a verified session credential.
type Identity struct {
	UserID uint
	Email  string
	Role   Role
}
