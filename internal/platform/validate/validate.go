// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// Values reaching it have already been sanitized; the validator checks
// shape, not safety. Password strength belongs to [sec.Hasher].
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/sec"
)

// MaxEmailLength is the RFC 5321 limit on an address.
const MaxEmailLength = 254

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// Validator collects field errors for one operation. Not safe for concurrent use.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// Email fails unless value is a bare address with a dotted domain.
func (v *Validator) Email(field, value string) *Validator {
	if !isBareAddress(value) {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// Role fails if value is not a known [sec.UserRole].
func (v *Validator) Role(field, value string) *Validator {
	if !sec.UserRole(value).IsValid() {
		v.add(field, "Must be one of: admin, instructor, user")
	}
	return v
}

// Confirms fails on field when confirmation differs from value.
func (v *Validator) Confirms(field, value, confirmation string) *Validator {
	if value != confirmation {
		v.add(field, "Passwords do not match")
	}
	return v
}

// Differs fails on field when value repeats previous.
func (v *Validator) Differs(field, value, previous string) *Validator {
	if value != "" && value == previous {
		v.add(field, "Must differ from the current password")
	}
	return v
}

// Err returns a VALIDATION_ERROR listing every failed rule, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

func isBareAddress(value string) bool {
	if value == "" || len(value) > MaxEmailLength {
		return false
	}
	address, err := mail.ParseAddress(value)
	if err != nil || address.Address != value {
		return false
	}
	domain := value[strings.LastIndex(value, "@")+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}
