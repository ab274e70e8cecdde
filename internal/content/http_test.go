// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package content_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lms/internal/content"
	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/users/auth"
)

type staticGate map[string]*sec.Identity

func (gate staticGate) RequireIdentity(_ context.Context, token string) (*sec.Identity, error) {
	if identity, ok := gate[token]; ok {
		return identity, nil
	}
	return nil, apperr.Unauthorized("Could not validate credentials")
}

func (gate staticGate) RequireRole(context.Context, *sec.Identity, string, ...sec.UserRole) error {
	return nil
}

type ownerTable struct {
	owners map[auth.ResourceType]map[int64]int64
	err    error
}

func (table ownerTable) CheckOwnership(_ context.Context, identity *sec.Identity, kind auth.ResourceType, id int64) (bool, error) {
	if table.err != nil {
		return false, apperr.Internal(table.err)
	}
	owner, ok := table.owners[kind][id]
	return ok && owner == identity.UserID, nil
}

func newRouter(checker content.OwnershipChecker) http.Handler {
	handler := content.NewHandler(staticGate{
		"admin":      {UserID: 1, Role: sec.RoleAdmin},
		"instructor": {UserID: 2, Role: sec.RoleInstructor},
		"student":    {UserID: 3, Role: sec.RoleUser},
	}, checker)

	router := chi.NewRouter()
	router.Mount("/courses", handler.CourseRoutes())
	router.Mount("/posts", handler.PostRoutes())
	return router
}

func probe(t *testing.T, router http.Handler, path, token string) (int, content.Permissions) {
	t.Helper()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var body struct {
		Data content.Permissions `json:"data"`
	}
	if recorder.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	}
	return recorder.Code, body.Data
}

/*
TestPermissions_Matrix checks owner-or-admin for courses and posts.
*/
func TestPermissions_Matrix(t *testing.T) {
	router := newRouter(ownerTable{owners: map[auth.ResourceType]map[int64]int64{
		auth.ResourceCourse: {10: 2, 11: 3},
		auth.ResourcePost:   {20: 3},
	}})

	tests := []struct {
		name    string
		path    string
		token   string
		owner   bool
		canEdit bool
	}{
		{"instructor_owns_course", "/courses/10/permissions", "instructor", true, true},
		{"student_cannot_edit_course", "/courses/10/permissions", "student", false, false},
		{"student_owning_course_lacks_role", "/courses/11/permissions", "student", true, false},
		{"admin_edits_any_course", "/courses/10/permissions", "admin", false, true},
		{"author_edits_post", "/posts/20/permissions", "student", true, true},
		{"other_cannot_edit_post", "/posts/20/permissions", "instructor", false, false},
		{"missing_post", "/posts/404/permissions", "student", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, permissions := probe(t, router, tt.path, tt.token)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.owner, permissions.IsOwner)
			assert.Equal(t, tt.canEdit, permissions.CanEdit)
			assert.Equal(t, tt.canEdit, permissions.CanDelete)
		})
	}
}

/*
TestPermissions_Errors covers anonymous callers, bad ids and store failures.
*/
func TestPermissions_Errors(t *testing.T) {
	router := newRouter(ownerTable{})

	status, _ := probe(t, router, "/courses/10/permissions", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = probe(t, router, "/courses/abc/permissions", "instructor")
	assert.Equal(t, http.StatusBadRequest, status)

	failing := newRouter(ownerTable{err: errors.New("db down")})
	status, _ = probe(t, failing, "/posts/1/permissions", "instructor")
	assert.Equal(t, http.StatusInternalServerError, status)
}
