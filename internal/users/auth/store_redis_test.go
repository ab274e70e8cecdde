// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/users/auth"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

/*
TestRedisResetTokens_SingleUse consumes a token exactly once and never stores it raw.
*/
func TestRedisResetTokens_SingleUse(t *testing.T) {
	server, client := newRedis(t)
	repo := auth.NewResetTokenRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "raw-token", 42, time.Hour))

	for _, key := range server.Keys() {
		assert.NotContains(t, key, "raw-token")
		assert.Contains(t, key, constants.RedisPrefixResetToken)
	}

	userID, err := repo.Consume(ctx, "raw-token")
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	_, err = repo.Consume(ctx, "raw-token")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestRedisResetTokens_Expiry forgets tokens after their TTL.
*/
func TestRedisResetTokens_Expiry(t *testing.T) {
	server, client := newRedis(t)
	repo := auth.NewResetTokenRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "short-lived", 7, time.Minute))
	server.FastForward(2 * time.Minute)

	_, err := repo.Consume(ctx, "short-lived")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestRedisTokenDenylist keeps a jti until the token would have expired.
*/
func TestRedisTokenDenylist(t *testing.T) {
	server, client := newRedis(t)
	denylist := auth.NewTokenDenylist(client)
	ctx := context.Background()

	require.NoError(t, denylist.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	require.NoError(t, denylist.Revoke(ctx, "jti-expired", time.Now().Add(-time.Minute)))

	revoked, err := denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = denylist.IsRevoked(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	server.FastForward(2 * time.Minute)

	revoked, err = denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

/*
TestRedisTokenDenylist_Unavailable reports the outage instead of answering false.
*/
func TestRedisTokenDenylist_Unavailable(t *testing.T) {
	server, client := newRedis(t)
	denylist := auth.NewTokenDenylist(client)
	server.Close()

	_, err := denylist.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}
