// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/lms/internal/platform/request"
	"github.com/taibuivan/lms/internal/platform/respond"
	"github.com/taibuivan/lms/internal/platform/sec"
)

// Gatekeeper resolves bearer tokens into identities and checks roles.
//
// It is satisfied by the users/auth gate; defining it here keeps the
// middleware free of the user store.
type Gatekeeper interface {
	RequireIdentity(ctx context.Context, token string) (*sec.Identity, error)
	RequireRole(ctx context.Context, identity *sec.Identity, action string, roles ...sec.UserRole) error
}

// RequireIdentity authenticates the caller from 'Authorization: Bearer <token>'.
//
// # Flow
//  1. Extract the bearer token; a missing or malformed header is UNAUTHORIZED.
//  2. Resolve it through the [Gatekeeper] (signature, type, user, active flag).
//  3. Inject the [*sec.Identity] into the request context.
func RequireIdentity(gate Gatekeeper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			// Already resolved by an outer group
			if ctxutil.GetIdentity(request.Context()) != nil {
				next.ServeHTTP(writer, request)
				return
			}

			token, ok := requestutil.BearerToken(request)
			if !ok {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			identity, err := gate.RequireIdentity(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			recordIdentity(request.Context(), identity.UserID)
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			ctx = ctxutil.WithLogAttrs(ctx, slog.Int64("user_id", identity.UserID), slog.String("role", string(identity.Role)))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireRole authenticates the caller and admits only the listed roles.
//
// It implies [RequireIdentity] so routes do not need to mount both. action
// names the operation for the audit log.
func RequireRole(gate Gatekeeper, action string, roles ...sec.UserRole) func(http.Handler) http.Handler {
	authenticate := RequireIdentity(gate)

	return func(next http.Handler) http.Handler {
		return authenticate(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())
			if err := gate.RequireRole(request.Context(), identity, action, roles...); err != nil {
				respond.Error(writer, request, err)
				return
			}
			next.ServeHTTP(writer, request)
		}))
	}
}

// RequireAdmin admits administrators only.
func RequireAdmin(gate Gatekeeper, action string) func(http.Handler) http.Handler {
	return RequireRole(gate, action, sec.RoleAdmin)
}

// RequireInstructorOrAdmin admits instructors and administrators.
func RequireInstructorOrAdmin(gate Gatekeeper, action string) func(http.Handler) http.Handler {
	return RequireRole(gate, action, sec.RoleInstructor, sec.RoleAdmin)
}
