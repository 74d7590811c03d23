// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole is the authorization level derived from an account's flags.
type UserRole string

const (
	// Bypasses every permission check
	RoleSuperuser UserRole = "superuser"

	// May use the admin directory endpoints
	RoleStaff UserRole = "staff"

	// Default role for standard registered users
	RoleMember UserRole = "member"
)

// RoleFor maps the staff and superuser flags to a [UserRole].
func RoleFor(isStaff, isSuperuser bool) UserRole {
	switch {
	case isSuperuser:
		return RoleSuperuser
	case isStaff:
		return RoleStaff
	default:
		return RoleMember
	}
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleSuperuser:
		return 30
	case RoleStaff:
		return 20
	case RoleMember:
		return 10
	default:
		return 0
	}
}
