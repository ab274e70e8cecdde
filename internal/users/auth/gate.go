// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/ctxutil"
	"github.com/taibuivan/lms/internal/platform/metrics"
	"github.com/taibuivan/lms/internal/platform/sec"
)

// credentialsRejected is the single message for every token or identity failure.
const credentialsRejected = "Could not validate credentials"

// Gate turns bearer tokens into identities and answers authorization questions.
//
// Every token or identity failure produces the same UNAUTHORIZED error, so
// a caller cannot tell an expired token from a deleted account.
type Gate struct {
	userRepository     UserRepository
	resourceRepository ResourceRepository
	tokens             *sec.TokenService
	denylist           TokenDenylist
	metrics            *metrics.Metrics
}

// NewGate constructs a [Gate]. denylist and m may be nil.
func NewGate(
	userRepo UserRepository,
	resourceRepo ResourceRepository,
	tokens *sec.TokenService,
	denylist TokenDenylist,
	m *metrics.Metrics,
) *Gate {
	return &Gate{
		userRepository:     userRepo,
		resourceRepository: resourceRepo,
		tokens:             tokens,
		denylist:           denylist,
		metrics:            m,
	}
}

// # Identity Resolution

/*
RequireIdentity validates an access token and loads its user.

Returns:
  - *sec.Identity: Caller with the role currently stored for the account
  - error: UNAUTHORIZED (bad token, revoked, unknown user), FORBIDDEN
    (inactive user) or INTERNAL_ERROR (store failure)
*/
func (gate *Gate) RequireIdentity(context context.Context, token string) (*sec.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, gate.reject(context, "missing_token")
	}

	claims, err := gate.tokens.DecodeAccess(token)
	if err != nil {
		return nil, gate.reject(context, "invalid_token")
	}

	if gate.denylist != nil {
		revoked, err := gate.denylist.IsRevoked(context, claims.ID)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("auth_gate_denylist_failed: %w", err))
		}
		if revoked {
			return nil, gate.reject(context, "revoked_token")
		}
	}

	subject := sec.Sanitize(claims.Subject)
	if subject == "" || !sec.UserRole(sec.Sanitize(string(claims.Role))).IsValid() {
		return nil, gate.reject(context, "invalid_claims")
	}

	user, err := gate.userRepository.FindByEmail(context, subject)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, gate.reject(context, "unknown_subject")
		}
		return nil, apperr.Internal(fmt.Errorf("auth_gate_lookup_failed: %w", err))
	}

	if err := gate.RequireActive(context, user); err != nil {
		return nil, err
	}

	return user.Identity(), nil
}

// RequireActive refuses inactive accounts.
func (gate *Gate) RequireActive(context context.Context, user *User) error {
	if user == nil {
		return gate.reject(context, "unknown_subject")
	}
	if !user.IsActive {
		gate.metrics.GateRejected("inactive_user")
		ctxutil.GetLogger(context).WarnContext(context, "authz_inactive_user",
			slog.Int64("user_id", user.ID),
			slog.String("client_addr", ctxutil.GetClientAddr(context)),
		)
		return apperr.Forbidden("Inactive user")
	}
	return nil
}

func (gate *Gate) reject(context context.Context, reason string) error {
	gate.metrics.GateRejected(reason)
	ctxutil.GetLogger(context).DebugContext(context, "authz_token_rejected", slog.String("reason", reason))
	return apperr.Unauthorized(credentialsRejected)
}

// # Role Checks

// RequireRole admits identity only when its role is one of roles. action is
// recorded in the audit line of a denial.
func (gate *Gate) RequireRole(context context.Context, identity *sec.Identity, action string, roles ...sec.UserRole) error {
	if identity == nil {
		return gate.reject(context, "missing_identity")
	}
	if identity.Role.In(roles...) {
		return nil
	}

	gate.metrics.GateRejected("role")
	ctxutil.GetLogger(context).WarnContext(context, "authz_denied",
		slog.Int64("user_id", identity.UserID),
		slog.String("role", string(identity.Role)),
		slog.String("client_addr", ctxutil.GetClientAddr(context)),
		slog.String("action", action),
	)
	return apperr.Forbidden("Not enough permissions")
}

// RequireAdmin admits administrators only.
func (gate *Gate) RequireAdmin(context context.Context, identity *sec.Identity, action string) error {
	return gate.RequireRole(context, identity, action, sec.RoleAdmin)
}

// RequireInstructorOrAdmin admits instructors and administrators.
func (gate *Gate) RequireInstructorOrAdmin(context context.Context, identity *sec.Identity, action string) error {
	return gate.RequireRole(context, identity, action, sec.RoleInstructor, sec.RoleAdmin)
}

// # Ownership

/*
CheckOwnership reports whether identity owns the resource.

Courses are owned by their instructor, posts by their author. An unknown
resource type or a missing resource is simply not owned; an error is
returned only when the store fails.
*/
func (gate *Gate) CheckOwnership(context context.Context, identity *sec.Identity, resourceType ResourceType, resourceID int64) (bool, error) {
	if identity == nil {
		return false, nil
	}

	var ownerID int64

	switch resourceType {
	case ResourceCourse:
		course, err := gate.resourceRepository.FindCourse(context, resourceID)
		if err != nil {
			return gate.ownershipLookupFailed(err)
		}
		ownerID = course.InstructorID

	case ResourcePost:
		post, err := gate.resourceRepository.FindPost(context, resourceID)
		if err != nil {
			return gate.ownershipLookupFailed(err)
		}
		ownerID = post.AuthorID

	default:
		return false, nil
	}

	return ownerID == identity.UserID, nil
}

func (gate *Gate) ownershipLookupFailed(err error) (bool, error) {
	if apperr.IsNotFound(err) {
		return false, nil
	}
	return false, apperr.Internal(fmt.Errorf("auth_gate_ownership_lookup_failed: %w", err))
}
