// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/lms/internal/platform/constants"
)

// FixedWindowLimiter counts hits per key in Redis so limits hold across
// every API replica.
//
// A window starts on the first hit for a key and lasts window; the key
// expires with it.
type FixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewFixedWindowLimiter creates a limiter whose keys live under [constants.RedisPrefixRateLimit].
func NewFixedWindowLimiter(client redis.UniversalClient) *FixedWindowLimiter {
	return &FixedWindowLimiter{client: client, prefix: constants.RedisPrefixRateLimit}
}

// Allow records one hit for key and reports whether it is within limit.
// When the limit is exceeded the remaining window is returned as retryAfter.
func (limiter *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	fullKey := limiter.prefix + key

	count, err := limiter.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis_ratelimit_failed: %w", err)
	}
	if count == 1 {
		if err := limiter.client.PExpire(ctx, fullKey, window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis_ratelimit_failed: %w", err)
		}
	}

	if count <= int64(limit) {
		return true, 0, nil
	}

	retryAfter, err := limiter.client.PTTL(ctx, fullKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis_ratelimit_failed: %w", err)
	}

	// A key left without expiry (crash between INCR and PEXPIRE) would block forever.
	if retryAfter <= 0 {
		_ = limiter.client.PExpire(ctx, fullKey, window).Err()
		retryAfter = window
	}
	return false, retryAfter, nil
}
