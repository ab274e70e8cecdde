// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token signer) via constructors.
  - Fail Fast: [Config.Validate] rejects unsafe security settings at startup.
*/
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/pkg/query"
)

// MinLoginFailureDelay is the floor applied to LOGIN_FAILURE_DELAY.
const MinLoginFailureDelay = 500 * time.Millisecond

// # Configuration Schema

// Config holds all runtime configuration for the LMS API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL        string        `env:"DATABASE_URL,required"`
	DBMaxConns         int32         `env:"DB_MAX_CONNS"         envDefault:"20"`
	DBMinConns         int32         `env:"DB_MIN_CONNS"         envDefault:"2"`
	DBStatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"30s"`

	// MigrationPath overrides the embedded migrations with a directory on disk.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Key-Value Cache (Redis)
	RedisURL          string `env:"REDIS_URL,required"`
	RedisPoolSize     int    `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	RedisMinIdleConns int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`

	// Token signing
	JWTSecretKey             string `env:"JWT_SECRET_KEY,required"`
	JWTAlgorithm             string `env:"JWT_ALGORITHM"               envDefault:"HS256"`
	JWTIssuer                string `env:"JWT_ISSUER"                  envDefault:"lms.api"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	RefreshTokenExpireDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS"   envDefault:"7"`
	TokenRevocationEnabled   bool   `env:"TOKEN_REVOCATION_ENABLED"    envDefault:"true"`

	// Password policy
	PasswordMinLength        int  `env:"PASSWORD_MIN_LENGTH"        envDefault:"12"`
	PasswordRequireUppercase bool `env:"PASSWORD_REQUIRE_UPPERCASE" envDefault:"true"`
	PasswordRequireLowercase bool `env:"PASSWORD_REQUIRE_LOWERCASE" envDefault:"true"`
	PasswordRequireDigit     bool `env:"PASSWORD_REQUIRE_DIGIT"     envDefault:"true"`
	PasswordRequireSpecial   bool `env:"PASSWORD_REQUIRE_SPECIAL"   envDefault:"true"`
	BcryptCost               int  `env:"BCRYPT_COST"                envDefault:"12"`

	// LoginFailureDelay is applied to every failed credential check.
	LoginFailureDelay time.Duration `env:"LOGIN_FAILURE_DELAY" envDefault:"500ms"`

	// Rate limiting
	RateLimitPerSecond     float64       `env:"RATE_LIMIT_PER_SECOND"     envDefault:"10"`
	RateLimitBurst         int           `env:"RATE_LIMIT_BURST"          envDefault:"20"`
	LoginRateLimit         int           `env:"LOGIN_RATE_LIMIT"          envDefault:"10"`
	RegisterRateLimit      int           `env:"REGISTER_RATE_LIMIT"       envDefault:"5"`
	PasswordResetRateLimit int           `env:"PASSWORD_RESET_RATE_LIMIT" envDefault:"5"`
	AuthRateLimitWindow    time.Duration `env:"AUTH_RATE_LIMIT_WINDOW"    envDefault:"1m"`

	// Cross-Origin Resource Sharing (comma separated)
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`

	// Reverse proxies allowed to set X-Forwarded-For (comma separated IPs or CIDRs)
	TrustedProxies string `env:"TRUSTED_PROXIES"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings that would weaken authentication.
func (c *Config) Validate() error {
	var problems []error

	if len(c.JWTSecretKey) < sec.MinSecretLength {
		problems = append(problems, fmt.Errorf("JWT_SECRET_KEY must be at least %d bytes", sec.MinSecretLength))
	}
	if _, ok := jwt.GetSigningMethod(c.JWTAlgorithm).(*jwt.SigningMethodHMAC); !ok {
		problems = append(problems, fmt.Errorf("JWT_ALGORITHM %q is not an HMAC algorithm", c.JWTAlgorithm))
	}
	if c.AccessTokenExpireMinutes <= 0 {
		problems = append(problems, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.RefreshTokenExpireDays <= 0 {
		problems = append(problems, errors.New("REFRESH_TOKEN_EXPIRE_DAYS must be positive"))
	}
	if c.PasswordMinLength < 8 {
		problems = append(problems, errors.New("PASSWORD_MIN_LENGTH must be at least 8"))
	}
	if c.BcryptCost < 10 || c.BcryptCost > 31 {
		problems = append(problems, errors.New("BCRYPT_COST must be between 10 and 31"))
	}
	if c.LoginFailureDelay < MinLoginFailureDelay {
		problems = append(problems, fmt.Errorf("LOGIN_FAILURE_DELAY must be at least %s", MinLoginFailureDelay))
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		problems = append(problems, errors.New("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS"))
	}
	if _, err := parsePrefixes(c.TrustedProxies); err != nil {
		problems = append(problems, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}
	if c.AuthRateLimitWindow <= 0 {
		problems = append(problems, errors.New("AUTH_RATE_LIMIT_WINDOW must be positive"))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid settings: %w", errors.Join(problems...))
	}
	return nil
}

// # Derived Values

// AccessTokenTTL is the lifetime of access tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTokenTTL is the lifetime of refresh tokens.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// TokenConfig builds the signer settings for [sec.NewTokenService].
func (c *Config) TokenConfig() sec.TokenConfig {
	return sec.TokenConfig{
		Secret:     c.JWTSecretKey,
		Algorithm:  c.JWTAlgorithm,
		Issuer:     c.JWTIssuer,
		AccessTTL:  c.AccessTokenTTL(),
		RefreshTTL: c.RefreshTokenTTL(),
	}
}

// PasswordPolicy builds the strength rules from the PASSWORD_* settings.
func (c *Config) PasswordPolicy() sec.PasswordPolicy {
	policy := sec.DefaultPasswordPolicy()
	policy.MinLength = c.PasswordMinLength
	policy.RequireUpper = c.PasswordRequireUppercase
	policy.RequireLower = c.PasswordRequireLowercase
	policy.RequireDigit = c.PasswordRequireDigit
	policy.RequireSpecial = c.PasswordRequireSpecial
	return policy
}

// AllowedOrigins splits CORS_ORIGINS into a trimmed list.
func (c *Config) AllowedOrigins() []string {
	return query.StringSlice(c.CORSOrigins)
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES. Invalid entries are skipped;
// [Config.Validate] reports them.
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	prefixes, _ := parsePrefixes(c.TrustedProxies)
	return prefixes
}

func parsePrefixes(raw string) ([]netip.Prefix, error) {
	var (
		prefixes []netip.Prefix
		problems []error
	)
	for _, entry := range query.StringSlice(raw) {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			problems = append(problems, fmt.Errorf("%q is not an IP or CIDR", entry))
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, errors.Join(problems...)
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
