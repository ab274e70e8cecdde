// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: IP tracking TTLs of the in-memory limiter.
  - Authentication: bearer scheme and password-reset token shape.
  - Transport: header names and Redis key prefixes.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "lms-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// It must exceed the login failure delay.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// RateLimitCleanupInterval is how often idle IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// BearerScheme is the Authorization header scheme for access tokens.
	BearerScheme = "Bearer"

	// PasswordResetTokenTTL bounds how long a reset link stays usable.
	PasswordResetTokenTTL = 1 * time.Hour

	// PasswordResetTokenBytes is the entropy of a reset token.
	PasswordResetTokenBytes = 32
)

// # HTTP Headers

const (
	HeaderAuthorization   = "Authorization"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	HeaderXRequestID      = "X-Request-ID"
	HeaderXRealIP         = "X-Real-IP"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderOrigin          = "Origin"
	HeaderRetryAfter      = "Retry-After"
	HeaderContentType     = "Content-Type"
)

// # Response Fields

// FieldMessage keys the human-readable outcome of action endpoints.
const FieldMessage = "message"

// # Redis Keys
//
// Every key shares the application namespace so one Redis can serve
// several deployments.

const (
	RedisNamespace        = "lms:"
	RedisPrefixResetToken = RedisNamespace + "auth:reset_token:"
	RedisPrefixRevokedJTI = RedisNamespace + "auth:revoked_jti:"
	RedisPrefixRateLimit  = RedisNamespace + "ratelimit:"
)
