// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role represents the type of role an account can have in the system.
type Role string

const (
	// RoleGuardian indicates an adult account overseeing children in a family.
	RoleGuardian Role = "guardian"
	// RoleChild indicates a monitored child account.
	RoleChild Role = "child"
	// RoleSafetyAdmin indicates a trust-and-safety operator.
	RoleSafetyAdmin Role = "safety_admin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleGuardian, RoleChild, RoleSafetyAdmin:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}
