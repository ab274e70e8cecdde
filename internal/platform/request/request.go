// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the router's parameter extraction and body decoding so
handlers share one error shape for malformed input.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/platform/ctxutil"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/platform/validate"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// DecodeJSON reads the request body into target, rejecting unknown fields
// and trailing data.
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Int64Param parses a named URL parameter as a positive integer ID.
func Int64Param(request *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ValidationError("Invalid identifier", apperr.FieldError{
			Field:   name,
			Message: "Must be a positive integer",
		})
	}
	return id, nil
}

// Identity returns the authenticated caller, or nil for anonymous requests.
func Identity(request *http.Request) *sec.Identity {
	return ctxutil.GetIdentity(request.Context())
}

// RequiredIdentity returns the authenticated caller or UNAUTHORIZED.
func RequiredIdentity(request *http.Request) (*sec.Identity, error) {
	identity := ctxutil.GetIdentity(request.Context())
	if identity == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return identity, nil
}

// BearerToken returns the token of a well-formed 'Authorization: Bearer' header.
func BearerToken(request *http.Request) (string, bool) {
	header := strings.TrimSpace(request.Header.Get(constants.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
