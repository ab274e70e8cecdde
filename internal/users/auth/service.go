// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/platform/ctxutil"
	"github.com/taibuivan/lms/internal/platform/metrics"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/platform/validate"
)

// # Contracts & Types

// Options carries the optional collaborators of [Service].
type Options struct {
	// FailureDelay is slept on every failed login and every reset request.
	FailureDelay time.Duration

	// Denylist enables server-side revocation; nil means logout is
	// client-side discard only.
	Denylist TokenDenylist

	// Metrics records login outcomes; nil disables instrumentation.
	Metrics *metrics.Metrics
}

// Service implements the authentication use cases.
//
// # Timing
//
// Authenticate runs bcrypt on every attempt (against a dummy hash when the
// account does not exist) and sleeps FailureDelay before reporting failure,
// so an unknown email and a wrong password cost the same.
type Service struct {
	userRepository       UserRepository
	resetTokenRepository ResetTokenRepository
	denylist             TokenDenylist
	hasher               *sec.Hasher
	tokens               *sec.TokenService
	metrics              *metrics.Metrics
	failureDelay         time.Duration
	now                  func() time.Time
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	userRepo UserRepository,
	resetRepo ResetTokenRepository,
	hasher *sec.Hasher,
	tokens *sec.TokenService,
	options Options,
) *Service {
	return &Service{
		userRepository:       userRepo,
		resetTokenRepository: resetRepo,
		denylist:             options.Denylist,
		hasher:               hasher,
		tokens:               tokens,
		metrics:              options.Metrics,
		failureDelay:         options.FailureDelay,
		now:                  time.Now,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

/*
Register validates, hashes, and persists a new account with the user role.

Returns:
  - *User: Created entity
  - error: VALIDATION_ERROR, WEAK_PASSWORD, CONFLICT or INTERNAL_ERROR
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	email := strings.TrimSpace(sec.Sanitize(input.Email))
	firstName := strings.TrimSpace(sec.Sanitize(input.FirstName))
	lastName := strings.TrimSpace(sec.Sanitize(input.LastName))

	v := &validate.Validator{}
	v.Required(FieldEmail, email).Email(FieldEmail, email).
		Required(FieldFirstName, firstName).MaxLen(FieldFirstName, firstName, MaxNameLength).
		MaxLen(FieldLastName, lastName, MaxNameLength).
		Required(FieldPassword, input.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	// Hash refuses weak passwords with the first failing rule.
	passwordHash, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		Role:         sec.RoleUser,
		IsActive:     true,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.CodeOf(err) == apperr.CodeConflict {
			return nil, apperr.Conflict(duplicateEmailMessage)
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_register_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_registered",
		slog.Int64("user_id", user.ID),
		slog.String("client_addr", ctxutil.GetClientAddr(context)),
	)

	return user, nil
}

// # Authentication Flow

// LoginResult is the outcome of a successful [Service.Authenticate].
type LoginResult struct {
	Tokens *sec.TokenPair
	User   *User
}

/*
Authenticate verifies an email and password and issues a token pair.

# Flow
 1. Sanitize the identifier and look the account up.
 2. Always run bcrypt, against a dummy hash when no account was found.
 3. Unknown account or wrong password: sleep the failure delay, then
    INVALID_CREDENTIALS with the same message either way.
 4. Inactive account with the right password: ACCOUNT_DISABLED.
 5. Success: stamp last login (best effort), issue tokens, audit log.

Lookup failures other than NOT_FOUND surface as INTERNAL_ERROR.
*/
func (service *Service) Authenticate(context context.Context, email, password string) (*LoginResult, error) {
	logger := ctxutil.GetLogger(context)
	clientAddr := ctxutil.GetClientAddr(context)

	// 1. Identifier lookup
	email = strings.TrimSpace(sec.Sanitize(email))

	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil && !apperr.IsNotFound(err) {
		service.metrics.LoginAttempt(apperr.CodeInternal)
		return nil, apperr.Internal(fmt.Errorf("auth_service_login_lookup_failed: %w", err))
	}

	// 2. Constant-cost verification
	var verified bool
	if user == nil {
		service.hasher.VerifyDummy(password)
	} else {
		verified = service.hasher.Verify(password, user.PasswordHash)
	}

	// 3. Generic failure
	if !verified {
		logger.WarnContext(context, "auth_login_failed",
			slog.String("client_addr", clientAddr),
			slog.Bool("known_account", user != nil),
		)
		service.metrics.LoginAttempt(apperr.CodeInvalidCredentials)
		time.Sleep(service.failureDelay)
		return nil, apperr.InvalidCredentials()
	}

	// 4. Disabled account
	if !user.IsActive {
		logger.WarnContext(context, "auth_login_disabled_account",
			slog.Int64("user_id", user.ID),
			slog.String("client_addr", clientAddr),
		)
		service.metrics.LoginAttempt(apperr.CodeAccountDisabled)
		return nil, apperr.AccountDisabled()
	}

	// 5. Success
	loginAt := service.now()
	if err := service.userRepository.TouchLastLogin(context, user.ID, loginAt); err != nil {
		logger.WarnContext(context, "auth_last_login_update_failed",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
	} else {
		user.LastLoginAt = &loginAt
	}

	pair, err := service.tokens.IssuePair(user.Email, user.Role, user.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_token_issue_failed: %w", err))
	}

	logger.InfoContext(context, "auth_login_succeeded",
		slog.Int64("user_id", user.ID),
		slog.String("client_addr", clientAddr),
	)
	service.metrics.LoginAttempt("success")

	return &LoginResult{Tokens: pair, User: user}, nil
}

// # Session Management

/*
Refresh exchanges a refresh token for a new token pair.

The presented refresh token is revoked when a denylist is configured, so each
refresh token can be used once. The new tokens carry the stored role, not the
role of the old token.
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*sec.TokenPair, error) {
	claims, err := service.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	if service.denylist != nil {
		revoked, err := service.denylist.IsRevoked(context, claims.ID)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("auth_service_refresh_denylist_failed: %w", err))
		}
		if revoked {
			return nil, apperr.InvalidToken()
		}
	}

	user, err := service.userRepository.FindByEmail(context, sec.Sanitize(claims.Subject))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.InvalidToken()
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_refresh_lookup_failed: %w", err))
	}
	if !user.IsActive {
		return nil, apperr.AccountDisabled()
	}

	// Rotation: the old refresh token dies before the new pair is issued
	if service.denylist != nil {
		if err := service.denylist.Revoke(context, claims.ID, claims.ExpiresAt); err != nil {
			return nil, apperr.Internal(fmt.Errorf("auth_service_refresh_rotate_failed: %w", err))
		}
	}

	pair, err := service.tokens.IssuePair(user.Email, user.Role, user.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_refresh_issue_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_token_refreshed", slog.Int64("user_id", user.ID))

	return pair, nil
}

/*
Logout revokes the caller's access token and, when supplied, its refresh token.

Tokens that no longer decode are ignored. Without a denylist this is a no-op
and the client is expected to discard its tokens.
*/
func (service *Service) Logout(context context.Context, accessToken, refreshToken string) error {
	if service.denylist == nil {
		return nil
	}

	decoders := []struct {
		token  string
		decode func(string) (*sec.Claims, error)
	}{
		{accessToken, service.tokens.DecodeAccess},
		{refreshToken, service.tokens.DecodeRefresh},
	}

	for _, candidate := range decoders {
		if candidate.token == "" {
			continue
		}
		claims, err := candidate.decode(candidate.token)
		if err != nil {
			continue
		}
		if err := service.denylist.Revoke(context, claims.ID, claims.ExpiresAt); err != nil {
			return apperr.Internal(fmt.Errorf("auth_service_logout_failed: %w", err))
		}
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_logged_out",
		slog.String("client_addr", ctxutil.GetClientAddr(context)),
	)
	return nil
}

// # Password Recovery

/*
RequestPasswordReset creates a single-use reset token for a known email.

The caller always gets the same answer after the same delay whether or not the
email exists. The raw token is returned for delivery and is "" for unknown
emails.

Delivery is the caller's job. The HTTP handler never echoes the token, so the
confirm endpoint is reachable only once a mail sender is composed around this
method.
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) (string, error) {
	defer time.Sleep(service.failureDelay)

	email = strings.TrimSpace(sec.Sanitize(email))

	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return "", nil
		}
		return "", apperr.Internal(fmt.Errorf("auth_service_reset_lookup_failed: %w", err))
	}
	if !user.IsActive {
		return "", nil
	}

	token, err := sec.GenerateSecureToken(constants.PasswordResetTokenBytes)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("auth_service_reset_token_failed: %w", err))
	}

	if err := service.resetTokenRepository.Set(context, token, user.ID, constants.PasswordResetTokenTTL); err != nil {
		return "", apperr.Internal(fmt.Errorf("auth_service_reset_token_store_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_password_reset_requested",
		slog.Int64("user_id", user.ID),
		slog.String("client_addr", ctxutil.GetClientAddr(context)),
	)

	return token, nil
}

// ResetPasswordInput is the confirmation step of the recovery flow.
type ResetPasswordInput struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

/*
ResetPassword consumes a reset token and sets a new password.

The password is checked before the token is consumed, so a weak choice does not
burn the link.
*/
func (service *Service) ResetPassword(context context.Context, input ResetPasswordInput) error {
	v := &validate.Validator{}
	v.Required(FieldToken, input.Token).
		Required(FieldNewPassword, input.NewPassword).
		Confirms(FieldConfirmPassword, input.NewPassword, input.ConfirmPassword)
	if err := v.Err(); err != nil {
		return err
	}

	if result := service.hasher.Validate(input.NewPassword); !result.Valid {
		return apperr.WeakPassword(result.Reason)
	}

	userID, err := service.resetTokenRepository.Consume(context, input.Token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.ValidationError("Reset token is invalid or expired", apperr.FieldError{
				Field:   FieldToken,
				Message: "Request a new password reset link",
			})
		}
		return apperr.Internal(fmt.Errorf("auth_service_reset_consume_failed: %w", err))
	}

	passwordHash, err := service.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	if err := service.userRepository.UpdatePassword(context, userID, passwordHash); err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_reset_update_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_password_reset_completed", slog.Int64("user_id", userID))
	return nil
}

/*
ChangePassword lets an authenticated user replace their password after proving
the current one.
*/
func (service *Service) ChangePassword(context context.Context, identity *sec.Identity, currentPassword, newPassword string) error {
	if identity == nil {
		return apperr.Unauthorized("Authentication required")
	}

	user, err := service.userRepository.FindByID(context, identity.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.Unauthorized("Authentication required")
		}
		return apperr.Internal(fmt.Errorf("auth_service_change_password_lookup_failed: %w", err))
	}

	if !service.hasher.Verify(currentPassword, user.PasswordHash) {
		return apperr.ValidationError("Current password is incorrect", apperr.FieldError{
			Field:   FieldCurrentPassword,
			Message: "Current password is incorrect",
		})
	}
	if err := (&validate.Validator{}).Differs(FieldNewPassword, newPassword, currentPassword).Err(); err != nil {
		return err
	}

	passwordHash, err := service.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := service.userRepository.UpdatePassword(context, user.ID, passwordHash); err != nil {
		return apperr.Internal(fmt.Errorf("auth_service_change_password_update_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_password_changed", slog.Int64("user_id", user.ID))
	return nil
}
