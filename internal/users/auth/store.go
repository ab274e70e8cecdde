// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository is the user lookup the credential verifier and gate depend on.
//
// Missing rows are reported as apperr NOT_FOUND; every other error is a
// collaborator failure.
type UserRepository interface {
	FindByID(context context.Context, id int64) (*User, error)
	FindByEmail(context context.Context, email string) (*User, error)

	// Create inserts the user and fills ID and timestamps.
	// A duplicate email is reported as apperr CONFLICT.
	Create(context context.Context, user *User) error

	UpdatePassword(context context.Context, userID int64, passwordHash string) error

	// TouchLastLogin records a successful authentication time.
	TouchLastLogin(context context.Context, userID int64, at time.Time) error
}

// # Content Ownership

// ResourceRepository resolves the owner of courses and blog posts.
type ResourceRepository interface {
	FindCourse(context context.Context, id int64) (*CourseRecord, error)
	FindPost(context context.Context, id int64) (*PostRecord, error)
}

// # Volatile Security State

// ResetTokenRepository stores single-use password reset tokens.
type ResetTokenRepository interface {
	Set(context context.Context, token string, userID int64, ttl time.Duration) error

	// Consume returns the owner of token and deletes it atomically.
	// Unknown or expired tokens are reported as apperr NOT_FOUND.
	Consume(context context.Context, token string) (int64, error)
}

// TokenDenylist records revoked token IDs (jti) until they would have expired.
type TokenDenylist interface {
	Revoke(context context.Context, jti string, expiresAt time.Time) error
	IsRevoked(context context.Context, jti string) (bool, error)
}
