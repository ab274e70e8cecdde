// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lms/internal/platform/redis"
)

/*
TestNewClient connects, reports pool stats and fails fast on a dead server.
*/
func TestNewClient(t *testing.T) {
	server := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	client, err := redis.NewClient(ctx, "redis://"+server.Addr()+"/0", redis.Options{PoolSize: 4, MinIdleConns: 1}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 4, client.Options().PoolSize)
	assert.NoError(t, redis.Ping(ctx, client))
	assert.GreaterOrEqual(t, redis.Stat(client).Total, 1)

	_, err = redis.NewClient(ctx, "not a url", redis.Options{}, logger)
	assert.Error(t, err)

	_, err = redis.NewClient(ctx, "redis://127.0.0.1:1/0", redis.Options{}, logger)
	assert.Error(t, err)
}
