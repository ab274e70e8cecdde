// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (sanitization, password
// policy, hashing, JWT signing) from the domain logic. It only depends on
// [apperr] so every layer above it can share the same primitives.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taibuivan/lms/internal/platform/apperr"
)

// # Token Types

// TokenType distinguishes short-lived access tokens from long-lived refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// MinSecretLength is the minimum HMAC key size accepted by [NewTokenService].
const MinSecretLength = 32

// reservedClaims cannot be supplied through the extra-claims map.
var reservedClaims = map[string]struct{}{
	"sub": {}, "role": {}, "type": {}, "iat": {}, "exp": {},
	"nbf": {}, "jti": {}, "iss": {}, "aud": {}, "uid": {},
}

// # Claims

// Claims is the decoded payload of an access or refresh token.
type Claims struct {
	Subject   string
	Role      UserRole
	Type      TokenType
	UserID    int64
	ID        string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Extra holds caller-supplied flat claims (strings, numbers, booleans).
	Extra map[string]any
}

// TokenPair is the credential bundle returned by login and refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// # Token Service

// TokenConfig configures a [TokenService].
type TokenConfig struct {
	Secret     string
	Algorithm  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService issues and decodes HMAC-signed JWTs.
//
// # Concurrency
//
// All fields are read-only after construction; the service is safe for
// concurrent use without locking.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService validates the configuration and returns a ready service.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("sec: jwt secret must be at least %d bytes", MinSecretLength)
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("sec: unsupported jwt algorithm %q", cfg.Algorithm)
	}

	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("sec: token ttl must be positive")
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *service
	clone.now = now
	return &clone
}

// AccessTTL returns the configured access-token lifetime.
func (service *TokenService) AccessTTL() time.Duration {
	return service.accessTTL
}

// IssueAccessToken signs a short-lived token for subject.
//
// Every string claim is sanitized before encoding. Extra claims must be flat
// and may not reuse a registered claim name.
func (service *TokenService) IssueAccessToken(subject string, role UserRole, userID int64, extra map[string]any) (string, time.Time, error) {
	return service.issue(TokenAccess, subject, role, userID, extra)
}

// IssueRefreshToken signs a long-lived token that can only mint new access tokens.
func (service *TokenService) IssueRefreshToken(subject string, role UserRole, userID int64) (string, time.Time, error) {
	return service.issue(TokenRefresh, subject, role, userID, nil)
}

// IssuePair issues an access token and a refresh token for the same subject.
func (service *TokenService) IssuePair(subject string, role UserRole, userID int64) (*TokenPair, error) {
	accessToken, accessExpiresAt, err := service.IssueAccessToken(subject, role, userID, nil)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExpiresAt, err := service.IssueRefreshToken(subject, role, userID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "bearer",
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (service *TokenService) issue(tokenType TokenType, subject string, role UserRole, userID int64, extra map[string]any) (string, time.Time, error) {
	ttl := service.accessTTL
	if tokenType == TokenRefresh {
		ttl = service.refreshTTL
	}

	claims := jwt.MapClaims{}
	for key, value := range extra {
		cleanKey := Sanitize(key)
		if _, reserved := reservedClaims[cleanKey]; reserved {
			return "", time.Time{}, fmt.Errorf("sec: extra claim %q is reserved", key)
		}
		switch value.(type) {
		case string, bool, int, int32, int64, float32, float64, nil:
			claims[cleanKey] = SanitizeValue(value)
		default:
			return "", time.Time{}, fmt.Errorf("sec: extra claim %q must be a flat scalar", key)
		}
	}

	issuedAt := service.now()
	expiresAt := issuedAt.Add(ttl)

	claims["sub"] = Sanitize(subject)
	claims["role"] = Sanitize(string(role))
	claims["type"] = string(tokenType)
	claims["uid"] = userID
	claims["jti"] = uuid.NewString()
	claims["iat"] = jwt.NewNumericDate(issuedAt)
	claims["exp"] = jwt.NewNumericDate(expiresAt)
	if service.issuer != "" {
		claims["iss"] = Sanitize(service.issuer)
	}

	signedToken, err := jwt.NewWithClaims(service.method, claims).SignedString(service.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, expiresAt, nil
}

// # Verification

// Decode verifies signature, algorithm, issuer, and expiry in one step.
//
// Every failure yields a fresh INVALID_TOKEN [apperr.AppError]; callers can
// not tell an expired token from a forged one.
func (service *TokenService) Decode(tokenString string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{service.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(service.now),
	}
	if service.issuer != "" {
		options = append(options, jwt.WithIssuer(service.issuer))
	}

	mapClaims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, mapClaims, func(*jwt.Token) (any, error) {
		return service.secret, nil
	}, options...)
	if err != nil || !token.Valid {
		return nil, apperr.InvalidToken()
	}

	claims, ok := claimsFromMap(mapClaims)
	if !ok {
		return nil, apperr.InvalidToken()
	}
	return claims, nil
}

// DecodeAccess decodes a token and requires type "access".
func (service *TokenService) DecodeAccess(tokenString string) (*Claims, error) {
	return service.decodeTyped(tokenString, TokenAccess)
}

// DecodeRefresh decodes a token and requires type "refresh".
func (service *TokenService) DecodeRefresh(tokenString string) (*Claims, error) {
	return service.decodeTyped(tokenString, TokenRefresh)
}

func (service *TokenService) decodeTyped(tokenString string, want TokenType) (*Claims, error) {
	claims, err := service.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, apperr.InvalidToken()
	}
	return claims, nil
}

// claimsFromMap converts verified map claims into [Claims]. Missing or
// mistyped registered claims make the token invalid.
func claimsFromMap(mapClaims jwt.MapClaims) (*Claims, bool) {
	subject, ok := mapClaims["sub"].(string)
	if !ok || subject == "" {
		return nil, false
	}
	tokenType, ok := mapClaims["type"].(string)
	if !ok {
		return nil, false
	}
	role, _ := mapClaims["role"].(string)
	jti, _ := mapClaims["jti"].(string)
	issuer, _ := mapClaims["iss"].(string)

	// JSON numbers decode as float64.
	var userID int64
	if raw, ok := mapClaims["uid"].(float64); ok {
		userID = int64(raw)
	}

	claims := &Claims{
		Subject: subject,
		Role:    UserRole(role),
		Type:    TokenType(tokenType),
		UserID:  userID,
		ID:      jti,
		Issuer:  issuer,
	}

	if issuedAt, err := mapClaims.GetIssuedAt(); err == nil && issuedAt != nil {
		claims.IssuedAt = issuedAt.Time
	}
	if expiresAt, err := mapClaims.GetExpirationTime(); err == nil && expiresAt != nil {
		claims.ExpiresAt = expiresAt.Time
	}

	for key, value := range mapClaims {
		if _, reserved := reservedClaims[key]; reserved {
			continue
		}
		if claims.Extra == nil {
			claims.Extra = make(map[string]any)
		}
		claims.Extra[key] = value
	}

	return claims, true
}
