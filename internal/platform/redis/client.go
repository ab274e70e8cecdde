// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides a managed client for volatile data storage.

It backs the short-lived security state of the API: password-reset tokens,
the revoked-token denylist, and the fixed-window counters behind the
per-endpoint authentication rate limits.
*/
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/lms/internal/platform/metrics"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// Options sizes the connection pool. Zero values keep the go-redis defaults.
type Options struct {
	PoolSize     int
	MinIdleConns int
}

func (options Options) apply(target *redis.Options) {
	if options.PoolSize > 0 {
		target.PoolSize = options.PoolSize
	}
	if options.MinIdleConns > 0 {
		target.MinIdleConns = options.MinIdleConns
	}
	target.DialTimeout = dialTimeout
	target.ReadTimeout = readTimeout
	target.WriteTimeout = writeTimeout
}

// NewClient parses a Redis URL and returns a connected client.
func NewClient(ctx context.Context, redisURL string, options Options, logger *slog.Logger) (*redis.Client, error) {
	clientOptions, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	options.apply(clientOptions)

	client := redis.NewClient(clientOptions)

	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", clientOptions.Addr),
		slog.Int("db", clientOptions.DB),
		slog.Int("pool_size", clientOptions.PoolSize),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}

// Stat reports the pool size for [metrics.Metrics.ObservePool].
func Stat(client redis.UniversalClient) metrics.PoolStat {
	stats := client.PoolStats()
	return metrics.PoolStat{
		Total: int(stats.TotalConns),
		Idle:  int(stats.IdleConns),
	}
}
