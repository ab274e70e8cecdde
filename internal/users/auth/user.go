// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the identity core of the LMS: the credential verifier
behind login, the token lifecycle (issue, refresh, revoke), password recovery,
and the authorization gate every protected route goes through.

# Architecture

  - Service: registration, login, refresh, logout and password flows.
  - Gate: resolves bearer tokens into identities and answers role and
    ownership questions.
  - Repositories: Postgres for users and owned content, Redis for reset
    tokens and the revoked-token denylist.
*/
package auth

import (
	"strings"
	"time"

	"github.com/taibuivan/lms/internal/platform/sec"
)

// # Domain Entities

// User is a registered account of the platform.
type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	PasswordHash string       `json:"-"`
	Bio          *string      `json:"bio,omitempty"`
	Role         sec.UserRole `json:"role"`
	IsActive     bool         `json:"is_active"`
	IsVerified   bool         `json:"is_verified"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Identity projects the account onto the request-scoped caller.
func (user *User) Identity() *sec.Identity {
	return &sec.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}
}

// FullName joins first and last name, skipping empty parts.
func (user *User) FullName() string {
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

// # Owned Content

// ResourceType names content whose ownership the gate can check.
type ResourceType string

const (
	ResourceCourse ResourceType = "course"
	ResourcePost   ResourceType = "post"
)

// CourseRecord is the ownership view of a course.
type CourseRecord struct {
	ID           int64
	InstructorID int64
}

// PostRecord is the ownership view of a blog post.
type PostRecord struct {
	ID       int64
	AuthorID int64
}

// # Field Identifiers

const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldToken           = "token"
	FieldRefreshToken    = "refresh_token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldConfirmPassword = "confirm_password"
)
