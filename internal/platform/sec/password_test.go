// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/sec"
)

const strongPassword = "Tr0ub4dor&Xq9z"

func newTestHasher(t *testing.T) *sec.Hasher {
	t.Helper()
	hasher, err := sec.NewHasher(sec.DefaultPasswordPolicy(), bcrypt.MinCost)
	require.NoError(t, err)
	return hasher
}

/*
TestPasswordPolicy_FirstFailingReason checks the rule order of Validate.
*/
func TestPasswordPolicy_FirstFailingReason(t *testing.T) {
	policy := sec.DefaultPasswordPolicy()

	tests := []struct {
		name     string
		password string
		reason   string
	}{
		{"too_short_and_lowercase", "abc", "at least 12 characters"},
		{"too_long", "Aa1!" + strings.Repeat("xY7#", 20), "at most 72 bytes"},
		{"no_upper", "tr0ub4dor&xq9z", "uppercase"},
		{"no_lower", "TR0UB4DOR&XQ9Z", "lowercase"},
		{"no_digit", "Troubador&Xqoz", "digit"},
		{"no_special", "Tr0ub4dorXq9zW", "special"},
		{"common_case_insensitive", "PaSSw0rd!", "too common"},
		{"ascending_letters", "Xabc-Tr0ub4d9", "sequential"},
		{"descending_digits", "Tr0ub-d0r&Q987", "sequential"},
		{"descending_letters", "Tr0ub4-zyx&Qw", "sequential"},
		{"repeated", "Tr0ub4dooo&Xq9", "repeated"},
	}

	policy.MinLength = 9

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := policy
			if tt.name == "too_short_and_lowercase" {
				p.MinLength = 12
			}
			result := p.Validate(tt.password)
			assert.False(t, result.Valid)
			assert.Contains(t, result.Reason, tt.reason)
		})
	}

	assert.True(t, policy.Validate(strongPassword).Valid)
}

/*
TestPasswordPolicy_Toggles verifies each class requirement can be disabled.
*/
func TestPasswordPolicy_Toggles(t *testing.T) {
	policy := sec.PasswordPolicy{MinLength: 8}

	assert.True(t, policy.Validate("plainwords").Valid)
	assert.False(t, policy.Validate("short").Valid)
}

/*
TestHasher_RefusesWeakPassword ensures Hash never hashes a policy failure.
*/
func TestHasher_RefusesWeakPassword(t *testing.T) {
	hasher := newTestHasher(t)

	hash, err := hasher.Hash("Sh0rt!")
	require.Error(t, err)
	assert.Empty(t, hash)
	assert.Equal(t, apperr.CodeWeakPassword, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "at least 12 characters")
}

/*
TestHasher_RoundTrip covers verify(p, hash(p)) and rejection of other passwords.
*/
func TestHasher_RoundTrip(t *testing.T) {
	hasher := newTestHasher(t)

	hash, err := hasher.Hash(strongPassword)
	require.NoError(t, err)

	assert.True(t, hasher.Verify(strongPassword, hash))
	assert.False(t, hasher.Verify("Gl4ss-Kettle!Q", hash))
	assert.False(t, hasher.Verify(strings.ToLower(strongPassword), hash))
}

/*
TestHasher_UniqueSalt ensures two hashes of the same password differ.
*/
func TestHasher_UniqueSalt(t *testing.T) {
	hasher := newTestHasher(t)

	first, err := hasher.Hash(strongPassword)
	require.NoError(t, err)
	second, err := hasher.Hash(strongPassword)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestHasher_MalformedHash must return false instead of failing.
*/
func TestHasher_MalformedHash(t *testing.T) {
	hasher := newTestHasher(t)

	for _, hash := range []string{"", "not-a-hash", "$2b$12$short"} {
		assert.NotPanics(t, func() {
			assert.False(t, hasher.Verify(strongPassword, hash))
		})
	}
	assert.NotPanics(t, func() { hasher.VerifyDummy(strongPassword) })
}

/*
TestNewHasher_RejectsCost guards against misconfigured work factors.
*/
func TestNewHasher_RejectsCost(t *testing.T) {
	_, err := sec.NewHasher(sec.DefaultPasswordPolicy(), 2)
	assert.Error(t, err)
}
