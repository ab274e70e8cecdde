// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/users/auth"
)

/*
TestGate_RequireIdentity_UsesStoredRole ignores the role claim in favour of
the account's current role.
*/
func TestGate_RequireIdentity_UsesStoredRole(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	user := f.seed(t, "ann@example.com", sec.RoleAdmin, true)
	token := f.accessToken(t, user)

	f.users.setRole(user.ID, sec.RoleUser)

	identity, err := f.gate.RequireIdentity(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "ann@example.com", identity.Email)
	assert.Equal(t, sec.RoleUser, identity.Role)
}

/*
TestGate_RequireIdentity_Rejections checks that every token failure has one shape.
*/
func TestGate_RequireIdentity_Rejections(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	user := f.seed(t, "ann@example.com", sec.RoleUser, true)

	pair, err := f.tokens.IssuePair(user.Email, user.Role, user.ID)
	require.NoError(t, err)

	ghost, _, err := f.tokens.IssueAccessToken("ghost@example.com", sec.RoleUser, 99, nil)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":          "",
		"garbage":        "abc.def.ghi",
		"refresh_token":  pair.RefreshToken,
		"unknown_person": ghost,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.gate.RequireIdentity(context.Background(), token)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeUnauthorized, ae.Code)
			assert.Equal(t, "Could not validate credentials", ae.Message)
		})
	}
}

/*
TestGate_RequireIdentity_DeactivatedUser rejects a valid token once the
account is disabled.
*/
func TestGate_RequireIdentity_DeactivatedUser(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	user := f.seed(t, "ann@example.com", sec.RoleUser, true)
	token := f.accessToken(t, user)

	_, err := f.gate.RequireIdentity(context.Background(), token)
	require.NoError(t, err)

	f.users.setActive(user.ID, false)

	_, err = f.gate.RequireIdentity(context.Background(), token)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

/*
TestGate_RequireIdentity_StoreFailure surfaces as INTERNAL_ERROR, not 401.
*/
func TestGate_RequireIdentity_StoreFailure(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	user := f.seed(t, "ann@example.com", sec.RoleUser, true)
	token := f.accessToken(t, user)

	f.users.failAll = errStoreDown

	_, err := f.gate.RequireIdentity(context.Background(), token)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
}

/*
TestGate_RequireRole covers the role matrix of the wrappers.
*/
func TestGate_RequireRole(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()

	tests := []struct {
		role              sec.UserRole
		admin             bool
		instructorOrAdmin bool
	}{
		{sec.RoleAdmin, true, true},
		{sec.RoleInstructor, false, true},
		{sec.RoleUser, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			identity := &sec.Identity{UserID: 1, Email: "x@example.com", Role: tt.role}

			err := f.gate.RequireAdmin(ctx, identity, "test")
			assert.Equal(t, tt.admin, err == nil)
			if err != nil {
				assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
			}

			err = f.gate.RequireInstructorOrAdmin(ctx, identity, "test")
			assert.Equal(t, tt.instructorOrAdmin, err == nil)
		})
	}

	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(f.gate.RequireRole(ctx, nil, "test", sec.RoleUser)))
}

/*
TestGate_CheckOwnership resolves course instructors and post authors.
*/
func TestGate_CheckOwnership(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()

	f.resources.courses[10] = 1
	f.resources.posts[20] = 2

	owner := &sec.Identity{UserID: 1, Role: sec.RoleInstructor}
	author := &sec.Identity{UserID: 2, Role: sec.RoleUser}

	tests := []struct {
		name     string
		identity *sec.Identity
		kind     auth.ResourceType
		id       int64
		want     bool
	}{
		{"course_owner", owner, auth.ResourceCourse, 10, true},
		{"course_other", author, auth.ResourceCourse, 10, false},
		{"post_author", author, auth.ResourcePost, 20, true},
		{"post_other", owner, auth.ResourcePost, 20, false},
		{"missing_course", owner, auth.ResourceCourse, 404, false},
		{"unknown_type", owner, auth.ResourceType("lesson"), 10, false},
		{"anonymous", nil, auth.ResourceCourse, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owned, err := f.gate.CheckOwnership(ctx, tt.identity, tt.kind, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, owned)
		})
	}

	f.resources.failAll = errStoreDown
	_, err := f.gate.CheckOwnership(ctx, owner, auth.ResourceCourse, 10)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
}
