// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/ctxutil"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/platform/validate"
	"github.com/taibuivan/lms/internal/users/auth"
	"github.com/taibuivan/lms/pkg/pagination"
)

// # Service Layer

// Service orchestrates profile edits and account administration.
type Service struct {
	accountRepository AccountRepository
	passwords         PasswordChanger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accountRepo AccountRepository, passwords PasswordChanger) *Service {
	return &Service{
		accountRepository: accountRepo,
		passwords:         passwords,
	}
}

// # Profile Management

/*
GetProfile retrieves the account of the caller.

Returns:
  - *auth.User: The hydrated user profile
  - error: NOT_FOUND or storage failures
*/
func (service *Service) GetProfile(context context.Context, userID int64) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, wrapLookup(err, "account_service_get_profile_failed")
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Bio       *string
}

/*
UpdateProfile applies a partial set of changes to the caller's profile.

Names are reduced to plain text; the bio keeps basic formatting.
*/
func (service *Service) UpdateProfile(context context.Context, userID int64, input UpdateProfileInput) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, wrapLookup(err, "account_service_update_lookup_failed")
	}

	v := &validate.Validator{}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(sec.Sanitize(*input.FirstName))
		v.Required(auth.FieldFirstName, user.FirstName).MaxLen(auth.FieldFirstName, user.FirstName, auth.MaxNameLength)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(sec.Sanitize(*input.LastName))
		v.MaxLen(auth.FieldLastName, user.LastName, auth.MaxNameLength)
	}
	if input.Bio != nil {
		bio := strings.TrimSpace(sec.SanitizeRichText(*input.Bio))
		v.MaxLen(FieldBio, bio, MaxBioLength)
		user.Bio = &bio
		if bio == "" {
			user.Bio = nil
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := service.accountRepository.UpdateProfile(context, user); err != nil {
		return nil, apperr.Internal(fmt.Errorf("account_service_update_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_profile_updated", slog.Int64("user_id", userID))

	return user, nil
}

// ChangePassword delegates to the credential flow after checking the confirmation.
func (service *Service) ChangePassword(context context.Context, identity *sec.Identity, input ChangePasswordInput) error {
	v := &validate.Validator{}
	v.Required(auth.FieldCurrentPassword, input.CurrentPassword).
		Required(auth.FieldNewPassword, input.NewPassword).
		Confirms(auth.FieldConfirmPassword, input.NewPassword, input.ConfirmPassword)
	if err := v.Err(); err != nil {
		return err
	}

	return service.passwords.ChangePassword(context, identity, input.CurrentPassword, input.NewPassword)
}

// ChangePasswordInput is the payload of a self-service password change.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// # Administration

/*
ListUsers returns one page of accounts.

Parameters:
  - filter: ListFilter (search term, role, active flag)
  - params: pagination.Params

Returns:
  - []*auth.User: Page items
  - int: Total matching accounts
*/
func (service *Service) ListUsers(context context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, int, error) {
	filter.Query = strings.TrimSpace(sec.Sanitize(filter.Query))

	users, total, err := service.accountRepository.List(context, filter, params)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("account_service_list_failed: %w", err))
	}
	return users, total, nil
}

// GetUser returns any account by ID.
func (service *Service) GetUser(context context.Context, id int64) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, id)
	if err != nil {
		return nil, wrapLookup(err, "account_service_get_user_failed")
	}
	return user, nil
}

// UpdateAccessInput carries the administrative fields of an account.
type UpdateAccessInput struct {
	Role     *string
	IsActive *bool
}

/*
UpdateAccess changes the role or active flag of an account.

Administrators cannot demote or disable themselves.
*/
func (service *Service) UpdateAccess(context context.Context, actor *sec.Identity, id int64, input UpdateAccessInput) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, id)
	if err != nil {
		return nil, wrapLookup(err, "account_service_access_lookup_failed")
	}

	if input.Role != nil {
		role := sec.UserRole(strings.TrimSpace(sec.Sanitize(*input.Role)))
		v := &validate.Validator{}
		if err := v.Role(FieldRole, string(role)).Err(); err != nil {
			return nil, err
		}
		user.Role = role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if actor != nil && actor.UserID == user.ID && (user.Role != sec.RoleAdmin || !user.IsActive) {
		return nil, apperr.Forbidden("Administrators cannot demote or disable themselves")
	}

	if err := service.accountRepository.UpdateAccess(context, user.ID, user.Role, user.IsActive); err != nil {
		return nil, apperr.Internal(fmt.Errorf("account_service_update_access_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_access_updated",
		slog.Int64("user_id", user.ID),
		slog.Int64("actor_id", actorID(actor)),
		slog.String("role", string(user.Role)),
		slog.Bool("is_active", user.IsActive),
	)

	return user, nil
}

func actorID(actor *sec.Identity) int64 {
	if actor == nil {
		return 0
	}
	return actor.UserID
}

// wrapLookup passes NOT_FOUND through and hides everything else.
func wrapLookup(err error, action string) error {
	if apperr.IsNotFound(err) {
		return err
	}
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}
