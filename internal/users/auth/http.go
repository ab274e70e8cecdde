// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/platform/middleware"
	requestutil "github.com/taibuivan/lms/internal/platform/request"
	"github.com/taibuivan/lms/internal/platform/respond"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/platform/validate"
)

// # Definitions & Constructors

// RouteLimits sets the per-client request budget of the public endpoints.
type RouteLimits struct {
	Login         int
	Register      int
	PasswordReset int
	Window        time.Duration
}

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// Registration, login, token refresh, logout and password recovery.
type Handler struct {
	authService *Service
	gate        middleware.Gatekeeper
	limiter     middleware.Limiter
	recorder    middleware.RejectionRecorder
	limits      RouteLimits
}

// NewHandler constructs a new [Handler].
func NewHandler(
	service *Service,
	gate middleware.Gatekeeper,
	limiter middleware.Limiter,
	recorder middleware.RejectionRecorder,
	limits RouteLimits,
) *Handler {
	return &Handler{
		authService: service,
		gate:        gate,
		limiter:     limiter,
		recorder:    recorder,
		limits:      limits,
	}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register               : Creates a new account.
//   - POST /login                  : Exchanges credentials for tokens.
//   - POST /refresh-token          : Rotates a refresh token.
//   - POST /logout                 : Revokes the caller's tokens.
//   - POST /password-reset         : Starts password recovery.
//   - POST /password-reset/confirm : Completes password recovery.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.With(handler.throttle("register", handler.limits.Register)).Post("/register", handler.register)
	router.With(handler.throttle("login", handler.limits.Login)).Post("/login", handler.login)
	router.Post("/refresh-token", handler.refresh)

	router.Group(func(r chi.Router) {
		r.Use(handler.throttle("password_reset", handler.limits.PasswordReset))
		r.Post("/password-reset", handler.requestPasswordReset)
		r.Post("/password-reset/confirm", handler.confirmPasswordReset)
	})

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity(handler.gate))
		r.Post("/logout", handler.logout)
	})

	return router
}

func (handler *Handler) throttle(scope string, limit int) func(http.Handler) http.Handler {
	return middleware.Throttle(handler.limiter, handler.recorder, scope, limit, handler.limits.Window)
}

// # Request Payloads

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// # Response Payloads

type tokenResponse struct {
	*sec.TokenPair
	ExpiresIn int64 `json:"expires_in"`
	User      *User `json:"user,omitempty"`
}

func newTokenResponse(pair *sec.TokenPair, user *User) tokenResponse {
	return tokenResponse{
		TokenPair: pair,
		ExpiresIn: int64(time.Until(pair.AccessExpiresAt) / time.Second),
		User:      user,
	}
}

/*
Register creates a new account.

POST /api/v1/auth/register

Description: Sanitizes the profile fields, enforces the password policy and
persists the account with the user role.

Request:
  - Body: registerRequest (Email, Password, FirstName, LastName)

Response:
  - 201: User: Created profile
  - 400: ErrValidation / ErrWeakPassword
  - 409: ErrConflict: Email already registered
  - 429: ErrRateLimited
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login verifies credentials and returns an access and refresh token.

POST /api/v1/auth/login

Description: Accepts a JSON body or an OAuth2 password form (username,
password). Every credential failure yields the same 401 after the same delay.

Response:
  - 200: tokenResponse
  - 401: ErrInvalidCredentials
  - 403: ErrAccountDisabled
  - 429: ErrRateLimited
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeLogin(writer, request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Required(FieldPassword, input.Password)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Authenticate(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newTokenResponse(result.Tokens, result.User))
}

// decodeLogin reads JSON or an OAuth2 password grant form.
func decodeLogin(writer http.ResponseWriter, request *http.Request) (loginRequest, error) {
	var input loginRequest

	contentType := request.Header.Get(constants.HeaderContentType)
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		request.Body = http.MaxBytesReader(writer, request.Body, 1<<16)
		if err := request.ParseForm(); err != nil {
			return input, validate.ErrInvalidJSON
		}
		input.Email = request.PostForm.Get("username")
		input.Password = request.PostForm.Get("password")
		return input, nil
	}

	err := requestutil.DecodeJSON(writer, request, &input)
	return input, err
}

/*
Refresh exchanges a refresh token for a new pair.

POST /api/v1/auth/refresh-token

Response:
  - 200: tokenResponse
  - 401: ErrInvalidToken
  - 403: ErrAccountDisabled
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if err := v.Required(FieldRefreshToken, input.RefreshToken).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newTokenResponse(pair, nil))
}

/*
Logout revokes the bearer token and the optional refresh token in the body.

POST /api/v1/auth/logout

Response:
  - 204: No Content
  - 401: ErrUnauthorized
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	accessToken, _ := requestutil.BearerToken(request)
	if err := handler.authService.Logout(request.Context(), accessToken, input.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
RequestPasswordReset starts password recovery.

POST /api/v1/auth/password-reset

Description: The answer is the same for known and unknown emails.

Response:
  - 200: Generic message
  - 400: ErrValidation: Malformed email
*/
func (handler *Handler) requestPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input passwordResetRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	email := strings.TrimSpace(sec.Sanitize(input.Email))
	v := &validate.Validator{}
	if err := v.Required(FieldEmail, email).Email(FieldEmail, email).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.authService.RequestPasswordReset(request.Context(), email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		constants.FieldMessage: genericResetMessage,
	})
}

/*
ConfirmPasswordReset completes password recovery.

POST /api/v1/auth/password-reset/confirm

Response:
  - 200: Confirmation message
  - 400: ErrValidation / ErrWeakPassword / invalid or expired token
*/
func (handler *Handler) confirmPasswordReset(writer http.ResponseWriter, request *http.Request) {
	var input passwordResetConfirmRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.ResetPassword(request.Context(), ResetPasswordInput{
		Token:           sec.Sanitize(input.Token),
		NewPassword:     input.NewPassword,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		constants.FieldMessage: "Password has been reset successfully",
	})
}
