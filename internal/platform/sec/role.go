// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can publish and manage their own courses and blog posts
	RoleInstructor UserRole = "instructor"

	// Default role for students and standard registered users
	RoleUser UserRole = "user"
)

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleUser:
		return true
	default:
		return false
	}
}

// In reports whether r is exactly one of the given roles.
func (r UserRole) In(roles ...UserRole) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
