// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package content exposes the permission probes of owned content.

A client asks whether the caller may edit or delete a course or a blog post
before rendering the corresponding controls. Courses require the instructor
or admin role in addition to ownership; posts only require ownership.
Administrators may modify anything.
*/
package content

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lms/internal/platform/middleware"
	requestutil "github.com/taibuivan/lms/internal/platform/request"
	"github.com/taibuivan/lms/internal/platform/respond"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/users/auth"
)

// OwnershipChecker answers "owner or admin" questions about a resource.
type OwnershipChecker interface {
	CheckOwnership(ctx context.Context, identity *sec.Identity, resourceType auth.ResourceType, id int64) (bool, error)
}

// Permissions is the answer of a probe.
type Permissions struct {
	ResourceType auth.ResourceType `json:"resource_type"`
	ResourceID   int64             `json:"resource_id"`
	IsOwner      bool              `json:"is_owner"`
	CanEdit      bool              `json:"can_edit"`
	CanDelete    bool              `json:"can_delete"`
}

// Handler serves the permission probes.
type Handler struct {
	gate      middleware.Gatekeeper
	ownership OwnershipChecker
}

// NewHandler constructs a new content [Handler].
func NewHandler(gate middleware.Gatekeeper, ownership OwnershipChecker) *Handler {
	return &Handler{gate: gate, ownership: ownership}
}

// CourseRoutes is mounted at /courses.
func (handler *Handler) CourseRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireIdentity(handler.gate))
	router.Get("/{id}/permissions", handler.probe(auth.ResourceCourse, sec.RoleInstructor, sec.RoleAdmin))
	return router
}

// PostRoutes is mounted at /posts.
func (handler *Handler) PostRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireIdentity(handler.gate))
	router.Get("/{id}/permissions", handler.probe(auth.ResourcePost))
	return router
}

/*
GET /api/v1/{courses|posts}/{id}/permissions.

Description: Reports whether the caller owns the resource and may edit or
delete it. A missing resource is reported as not owned.

Response:
  - 200: Permissions
  - 400: ErrValidation: Malformed id
  - 401: ErrUnauthorized
*/
func (handler *Handler) probe(resourceType auth.ResourceType, requiredRoles ...sec.UserRole) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		identity, err := requestutil.RequiredIdentity(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		id, err := requestutil.Int64Param(request, "id")
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		owned, err := handler.ownership.CheckOwnership(request.Context(), identity, resourceType, id)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		allowed := identity.IsAdmin()
		if !allowed && owned {
			allowed = len(requiredRoles) == 0 || identity.Role.In(requiredRoles...)
		}

		respond.OK(writer, Permissions{
			ResourceType: resourceType,
			ResourceID:   id,
			IsOwner:      owned,
			CanEdit:      allowed,
			CanDelete:    allowed,
		})
	}
}
