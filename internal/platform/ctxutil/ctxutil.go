// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil stores and retrieves per-request values (request ID,
// client address, logger, identity) in a [context.Context].
//
// Keys are unexported so only this package can read or overwrite them.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/lms/internal/platform/sec"
)

type contextKey int

const (
	keyRequestID contextKey = iota
	keyClientAddr
	keyLogger
	keyIdentity
)

// unknownAddr is reported when no client address was resolved.
const unknownAddr = "unknown"

// # Request Tracing

// WithRequestID attaches the correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// GetRequestID returns the correlation ID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// WithClientAddr attaches the caller's IP address.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, keyClientAddr, addr)
}

// GetClientAddr returns the caller's IP address, or "unknown".
func GetClientAddr(ctx context.Context) string {
	if addr, ok := ctx.Value(keyClientAddr).(string); ok && addr != "" {
		return addr
	}
	return unknownAddr
}

// # Structured Logging

// WithLogger attaches the request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}

// GetLogger returns the request-scoped logger, or [slog.Default].
func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(keyLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogAttrs derives the request logger with extra attributes, so every
// later audit line of the request carries them.
func WithLogAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return WithLogger(ctx, GetLogger(ctx).With(args...))
}

// # Identity & Access

// WithIdentity attaches the authenticated caller.
func WithIdentity(ctx context.Context, identity *sec.Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, identity)
}

// GetIdentity returns the authenticated caller, or nil for anonymous requests.
func GetIdentity(ctx context.Context) *sec.Identity {
	identity, _ := ctx.Value(keyIdentity).(*sec.Identity)
	return identity
}
