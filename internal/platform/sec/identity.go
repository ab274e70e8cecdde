// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// Identity is the resolved caller of a gated request.
//
// It is built from a verified access token plus the stored user record, and
// lives in the request context for the duration of handling.
type Identity struct {
	UserID int64    `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}

// IsAdmin reports whether the identity holds the admin role.
func (identity *Identity) IsAdmin() bool {
	return identity != nil && identity.Role == RoleAdmin
}
