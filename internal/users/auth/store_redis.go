// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/platform/sec"
)

// # Reset Token Repository

// RedisResetTokenRepository implements [ResetTokenRepository] using Redis.
//
// Keys hold the SHA-256 of the token, never the token itself.
type RedisResetTokenRepository struct {
	client redis.UniversalClient
}

// NewResetTokenRepository creates a new Redis-backed ResetTokenRepository.
func NewResetTokenRepository(client redis.UniversalClient) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

func resetTokenKey(token string) string {
	return constants.RedisPrefixResetToken + sec.HashToken(token)
}

// Set stores a reset token for userID with the given TTL.
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, userID int64, ttl time.Duration) error {
	if err := repository.client.Set(context, resetTokenKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}
	return nil
}

// Consume resolves and deletes the token in one GETDEL.
func (repository *RedisResetTokenRepository) Consume(context context.Context, token string) (int64, error) {
	raw, err := repository.client.GetDel(context, resetTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperr.NotFound("Reset token")
		}
		return 0, fmt.Errorf("redis_reset_token_consume_failed: %w", err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis_reset_token_corrupt: %w", err)
	}
	return userID, nil
}

// # Token Denylist

// RedisTokenDenylist implements [TokenDenylist]; entries expire with the token.
type RedisTokenDenylist struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewTokenDenylist creates a new Redis-backed TokenDenylist.
func NewTokenDenylist(client redis.UniversalClient) *RedisTokenDenylist {
	return &RedisTokenDenylist{client: client, now: time.Now}
}

// Revoke denylists jti until expiresAt. Already-expired tokens are skipped.
func (denylist *RedisTokenDenylist) Revoke(context context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}

	ttl := expiresAt.Sub(denylist.now())
	if ttl <= 0 {
		return nil
	}

	if err := denylist.client.Set(context, constants.RedisPrefixRevokedJTI+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis_denylist_revoke_failed: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked.
func (denylist *RedisTokenDenylist) IsRevoked(context context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	count, err := denylist.client.Exists(context, constants.RedisPrefixRevokedJTI+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redis_denylist_lookup_failed: %w", err)
	}
	return count > 0, nil
}
