// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/users/auth"
)

const (
	testSecret   = "test-secret-key-with-at-least-32-bytes!!"
	testPassword = "Tr0ub4dor&Xq9z"
)

var errStoreDown = errors.New("connection refused")

// # In-memory user store

type memUsers struct {
	mu      sync.Mutex
	byID    map[int64]*auth.User
	nextID  int64
	failAll error
	touched map[int64]time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*auth.User{}, touched: map[int64]time.Time{}}
}

func (m *memUsers) add(user *auth.User) *auth.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.byID[user.ID] = user
	return user
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	user, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	copied := *user
	return &copied, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, user := range m.byID {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (m *memUsers) Create(_ context.Context, user *auth.User) error {
	if existing, _ := m.FindByEmail(context.Background(), user.Email); existing != nil {
		return apperr.Conflict("User already exists")
	}
	m.add(user)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[userID] = at
	return nil
}

func (m *memUsers) setActive(id int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].IsActive = active
}

func (m *memUsers) setRole(id int64, role sec.UserRole) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].Role = role
}

// # In-memory content store

type memResources struct {
	courses map[int64]int64
	posts   map[int64]int64
	failAll error
}

func (m *memResources) FindCourse(_ context.Context, id int64) (*auth.CourseRecord, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	owner, ok := m.courses[id]
	if !ok {
		return nil, apperr.NotFound("Course")
	}
	return &auth.CourseRecord{ID: id, InstructorID: owner}, nil
}

func (m *memResources) FindPost(_ context.Context, id int64) (*auth.PostRecord, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	owner, ok := m.posts[id]
	if !ok {
		return nil, apperr.NotFound("Post")
	}
	return &auth.PostRecord{ID: id, AuthorID: owner}, nil
}

// # In-memory volatile state

type memResetTokens struct {
	mu     sync.Mutex
	tokens map[string]int64
}

func (m *memResetTokens) Set(_ context.Context, token string, userID int64, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string]int64{}
	}
	m.tokens[token] = userID
	return nil
}

func (m *memResetTokens) Consume(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.tokens[token]
	if !ok {
		return 0, apperr.NotFound("Reset token")
	}
	delete(m.tokens, token)
	return userID, nil
}

type memDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (m *memDenylist) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[jti] = expiresAt
	return nil
}

func (m *memDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

// # Fixture

type fixture struct {
	users     *memUsers
	resources *memResources
	resets    *memResetTokens
	denylist  *memDenylist
	hasher    *sec.Hasher
	tokens    *sec.TokenService
	service   *auth.Service
	gate      *auth.Gate
}

func newFixture(t *testing.T, failureDelay time.Duration) *fixture {
	t.Helper()
	return newFixtureWithCost(t, failureDelay, bcrypt.MinCost)
}

func newFixtureWithCost(t *testing.T, failureDelay time.Duration, cost int) *fixture {
	t.Helper()

	hasher, err := sec.NewHasher(sec.DefaultPasswordPolicy(), cost)
	require.NoError(t, err)

	tokens, err := sec.NewTokenService(sec.TokenConfig{
		Secret:     testSecret,
		Algorithm:  "HS256",
		Issuer:     "lms.test",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	f := &fixture{
		users:     newMemUsers(),
		resources: &memResources{courses: map[int64]int64{}, posts: map[int64]int64{}},
		resets:    &memResetTokens{},
		denylist:  &memDenylist{},
		hasher:    hasher,
		tokens:    tokens,
	}
	f.service = auth.NewService(f.users, f.resets, hasher, tokens, auth.Options{
		FailureDelay: failureDelay,
		Denylist:     f.denylist,
	})
	f.gate = auth.NewGate(f.users, f.resources, tokens, f.denylist, nil)
	return f
}

// seed stores an account whose password is testPassword.
func (f *fixture) seed(t *testing.T, email string, role sec.UserRole, active bool) *auth.User {
	t.Helper()
	hash, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)
	return f.users.add(&auth.User{
		Email:        email,
		FirstName:    "Test",
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	})
}

func (f *fixture) accessToken(t *testing.T, user *auth.User) string {
	t.Helper()
	token, _, err := f.tokens.IssueAccessToken(user.Email, user.Role, user.ID, nil)
	require.NoError(t, err)
	return token
}
