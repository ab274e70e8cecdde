// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/lms/internal/platform/apperr"
)

// # Password Policy

// bcryptMaxBytes is the input limit of bcrypt. Longer secrets are rejected
// by policy rather than silently truncated.
const bcryptMaxBytes = 72

// defaultCommonPasswords is the exact-match deny-list checked case-insensitively.
var defaultCommonPasswords = []string{
	"password", "123456", "qwerty", "admin", "welcome", "password123",
	"letmein", "iloveyou", "administrator", "changeme", "passw0rd!",
}

// PasswordPolicy describes the strength rules applied before hashing.
//
// The zero value only enforces the bcrypt byte limit. Use
// [DefaultPasswordPolicy] for production settings.
type PasswordPolicy struct {
	MinLength       int
	RequireUpper    bool
	RequireLower    bool
	RequireDigit    bool
	RequireSpecial  bool
	CommonPasswords []string
}

// DefaultPasswordPolicy returns the platform's standard rules.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:       12,
		RequireUpper:    true,
		RequireLower:    true,
		RequireDigit:    true,
		RequireSpecial:  true,
		CommonPasswords: defaultCommonPasswords,
	}
}

// StrengthResult is the outcome of [PasswordPolicy.Validate].
type StrengthResult struct {
	Valid  bool
	Reason string
}

func weak(reason string) StrengthResult {
	return StrengthResult{Valid: false, Reason: reason}
}

/*
Validate checks password against the policy and reports the first failing rule.

Rules run in a fixed order:
 1. length (minimum runes, maximum bcrypt bytes)
 2. character classes (upper, lower, digit, special), each toggleable
 3. exact match against the common-password list, case-insensitive
 4. ascending/descending alphabetic or numeric runs of 3+
 5. any rune repeated 3+ times in a row
*/
func (policy PasswordPolicy) Validate(password string) StrengthResult {
	if utf8.RuneCountInString(password) < policy.MinLength {
		return weak(fmt.Sprintf("Password must be at least %d characters long", policy.MinLength))
	}
	if len(password) > bcryptMaxBytes {
		return weak(fmt.Sprintf("Password must be at most %d bytes long", bcryptMaxBytes))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if policy.RequireUpper && !hasUpper {
		return weak("Password must contain at least one uppercase letter")
	}
	if policy.RequireLower && !hasLower {
		return weak("Password must contain at least one lowercase letter")
	}
	if policy.RequireDigit && !hasDigit {
		return weak("Password must contain at least one digit")
	}
	if policy.RequireSpecial && !hasSpecial {
		return weak("Password must contain at least one special character")
	}

	lowered := strings.ToLower(password)
	for _, common := range policy.CommonPasswords {
		if lowered == strings.ToLower(common) {
			return weak("This password is too common and easily guessed")
		}
	}

	runes := []rune(lowered)
	if hasSequentialRun(runes) {
		return weak("Password contains sequential characters")
	}
	if hasRepeatedRun(runes) {
		return weak("Password contains too many repeated characters")
	}

	return StrengthResult{Valid: true}
}

// hasSequentialRun finds three consecutive letters or digits stepping by +1 or -1.
func hasSequentialRun(runes []rune) bool {
	for i := 0; i+2 < len(runes); i++ {
		a, b, c := runes[i], runes[i+1], runes[i+2]
		if !sameSequenceClass(a, b, c) {
			continue
		}
		if (b == a+1 && c == b+1) || (b == a-1 && c == b-1) {
			return true
		}
	}
	return false
}

func sameSequenceClass(runes ...rune) bool {
	allLetters, allDigits := true, true
	for _, r := range runes {
		allLetters = allLetters && r >= 'a' && r <= 'z'
		allDigits = allDigits && r >= '0' && r <= '9'
	}
	return allLetters || allDigits
}

func hasRepeatedRun(runes []rune) bool {
	for i := 0; i+2 < len(runes); i++ {
		if runes[i] == runes[i+1] && runes[i+1] == runes[i+2] {
			return true
		}
	}
	return false
}

// # Hashing

// Hasher validates, hashes, and verifies passwords with bcrypt.
//
// # Timing
//
// dummyHash is generated once at the configured cost so that
// [Hasher.VerifyDummy] costs the same as a real comparison.
type Hasher struct {
	policy    PasswordPolicy
	cost      int
	dummyHash []byte
}

// NewHasher builds a Hasher for the given policy and bcrypt cost.
func NewHasher(policy PasswordPolicy, cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("sec: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("sec: failed to seed dummy hash: %w", err)
	}

	dummyHash, err := bcrypt.GenerateFromPassword(seed[:bcryptMaxBytes/3], cost)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to build dummy hash: %w", err)
	}

	return &Hasher{policy: policy, cost: cost, dummyHash: dummyHash}, nil
}

// Policy returns the strength rules enforced by [Hasher.Hash].
func (hasher *Hasher) Policy() PasswordPolicy {
	return hasher.policy
}

// Validate is shorthand for hasher.Policy().Validate(password).
func (hasher *Hasher) Validate(password string) StrengthResult {
	return hasher.policy.Validate(password)
}

// Hash refuses weak passwords with a WEAK_PASSWORD [apperr.AppError] and
// otherwise returns a salted bcrypt hash.
func (hasher *Hasher) Hash(password string) (string, error) {
	if result := hasher.policy.Validate(password); !result.Valid {
		return "", apperr.WeakPassword(result.Reason)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text password with a stored hash.
// Malformed or empty hashes report false, never an error.
func (hasher *Hasher) Verify(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	if err == nil {
		return true
	}
	// Malformed hashes fail fast inside bcrypt. Burn the normal cost so a
	// corrupted row is not distinguishable by timing either.
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		hasher.VerifyDummy(plainTextPassword)
	}
	return false
}

// VerifyDummy performs a comparison against the dummy hash and discards the result.
// It is called on the unknown-account branch of the login flow.
func (hasher *Hasher) VerifyDummy(plainTextPassword string) {
	_ = bcrypt.CompareHashAndPassword(hasher.dummyHash, []byte(plainTextPassword))
}
