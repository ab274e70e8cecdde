// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles profile management for members and user administration
for staff.

# Architecture

  - Members read and edit their own profile and change their password.
  - Administrators list accounts, change roles and enable or disable access.
  - Domain: This package depends on the auth package for the User entity and
    the password rules.
*/
package account

import (
	"context"

	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/users/auth"
	"github.com/taibuivan/lms/pkg/pagination"
)

// MaxBioLength bounds the rich-text biography after sanitization.
const MaxBioLength = 2000

// # Field Identifiers

const (
	FieldBio      = "bio"
	FieldRole     = "role"
	FieldIsActive = "is_active"
)

// # Query Filters

// ListFilter narrows the administrative user listing.
type ListFilter struct {
	// Query matches email, first or last name (case-insensitive substring).
	Query string

	// Roles keeps accounts holding any of the listed roles; empty means all.
	Roles []sec.UserRole

	IsActive *bool
}

// # Repository Contracts

// AccountRepository defines the persistence contract for user accounts.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by its ID.

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*auth.User, error)

	// UpdateProfile persists first name, last name and bio.
	UpdateProfile(context context.Context, user *auth.User) error

	// UpdateAccess persists role and active flag.
	UpdateAccess(context context.Context, id int64, role sec.UserRole, isActive bool) error

	/*
		List returns one page of accounts and the total matching count.

		Parameters:
		  - filter: ListFilter
		  - params: pagination.Params (Page, Limit)
	*/
	List(context context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, int, error)
}

// PasswordChanger verifies the current password and stores a new one.
type PasswordChanger interface {
	ChangePassword(context context.Context, identity *sec.Identity, currentPassword, newPassword string) error
}
