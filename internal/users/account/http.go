// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/platform/middleware"
	requestutil "github.com/taibuivan/lms/internal/platform/request"
	"github.com/taibuivan/lms/internal/platform/respond"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/pkg/pagination"
	"github.com/taibuivan/lms/pkg/query"
)

// Handler implements the HTTP layer for user account management.
//
// # Security
//
// Every route requires a bearer token; the administration routes also
// require the admin role.
type Handler struct {
	accountService *Service
	gate           middleware.Gatekeeper
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, gate middleware.Gatekeeper) *Handler {
	return &Handler{accountService: service, gate: gate}
}

// Routes returns a [chi.Router] configured with the account endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireIdentity(handler.gate))

	// Self service
	router.Get("/me", handler.getMe)
	router.Put("/me", handler.updateMe)
	router.Put("/me/password", handler.changePassword)

	// Administration
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(handler.gate, "users.manage"))
		r.Get("/", handler.listUsers)
		r.Get("/{id}", handler.getUser)
		r.Patch("/{id}", handler.updateAccess)
	})

	return router
}

// # Self Service Endpoints

/*
GET /api/v1/users/me.

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: User: Profile without credentials
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), identity.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
}

/*
PUT /api/v1/users/me.

Description: Updates the caller's names and biography. Omitted fields are
left unchanged.

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), identity.UserID, UpdateProfileInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Bio:       input.Bio,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

/*
PUT /api/v1/users/me/password.

Response:
  - 200: Confirmation message
  - 400: ErrValidation / ErrWeakPassword
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.accountService.ChangePassword(request.Context(), identity, ChangePasswordInput{
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		constants.FieldMessage: "Password updated successfully",
	})
}

// # Administration Endpoints

/*
GET /api/v1/users.

Description: Lists accounts. Admin only.

Request:
  - page, limit, q: pagination.Params
  - role: comma-separated roles
  - is_active: true or false

Response:
  - 200: []User with pagination meta
  - 403: ErrForbidden
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	values := request.URL.Query()

	filter := ListFilter{Query: params.Query}

	for _, raw := range query.StringSlice(values.Get(FieldRole)) {
		role := sec.UserRole(raw)
		if !role.IsValid() {
			respond.Error(writer, request, apperr.ValidationError("Invalid role filter", apperr.FieldError{
				Field:   FieldRole,
				Message: "Must be one of: admin, instructor, user",
			}))
			return
		}
		filter.Roles = append(filter.Roles, role)
	}

	isActive, ok := query.OptionalBool(values.Get(FieldIsActive))
	if !ok {
		respond.Error(writer, request, apperr.ValidationError("Invalid active filter", apperr.FieldError{
			Field:   FieldIsActive,
			Message: "Must be true or false",
		}))
		return
	}
	filter.IsActive = isActive

	users, total, err := handler.accountService.ListUsers(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params, total))
}

/*
GET /api/v1/users/{id}.

Response:
  - 200: User
  - 404: ErrNotFound
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetUser(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

type updateAccessRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

/*
PATCH /api/v1/users/{id}.

Description: Changes role and/or active flag. Admin only.

Response:
  - 200: User: The updated account
  - 400: ErrValidation: Unknown role
  - 403: ErrForbidden: Self-demotion or self-deactivation
  - 404: ErrNotFound
*/
func (handler *Handler) updateAccess(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateAccessRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateAccess(request.Context(), requestutil.Identity(request), id, UpdateAccessInput{
		Role:     input.Role,
		IsActive: input.IsActive,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}
