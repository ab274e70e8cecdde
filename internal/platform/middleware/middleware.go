// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware provides the cross-cutting HTTP processing chain.

It acts as a series of decorators around the standard http.Handler, injecting
traceability, safety, and security into every request lifecycle.

Standard Stack:

  - Trace: RequestID generation and client address resolution.
  - Log: Structured activity logging (slog).
  - Guard: Global and per-endpoint rate limiting, CORS, security headers.
  - Safe: Panic recovery to prevent server crashes.
  - Gate: Bearer authentication and role checks (authz.go).
*/
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/platform/ctxutil"
	"github.com/taibuivan/lms/internal/platform/respond"
)

// # Request Tracing

// RequestID attaches a correlation ID and the resolved client address to
// every request. Forwarding headers count only when the socket peer falls
// inside trustedProxies (see [ClientIP]).
func RequestID(trustedProxies []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Reuse a client-supplied ID only if it is a sane token
			requestID := request.Header.Get(constants.HeaderXRequestID)
			if len(requestID) > 64 || strings.ContainsAny(requestID, " \t\r\n") {
				requestID = ""
			}

			// 2. Generate a time-sortable one otherwise
			if requestID == "" {
				if id, err := uuid.NewV7(); err == nil {
					requestID = id.String()
				} else {
					requestID = uuid.NewString()
				}
			}

			// 3. Inject into context and response headers
			ctx := ctxutil.WithRequestID(request.Context(), requestID)
			ctx = ctxutil.WithClientAddr(ctx, ClientIP(request, trustedProxies))
			writer.Header().Set(constants.HeaderXRequestID, requestID)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Activity Logging

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// StructuredLogger logs every request status and latency.
// It also injects a request-specific logger into the context.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			startTime := time.Now()

			// 1. Create a sub-logger for this specific request
			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", ctxutil.GetClientAddr(request.Context())),
			)

			// 2. Inject this logger into the context for downstream use
			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			// 3. Identity is resolved further down the chain; capture it through a holder
			holder := &identityHolder{}
			ctx = withIdentityHolder(ctx, holder)

			next.ServeHTTP(wrappedWriter, request.WithContext(ctx))

			// 4. Final log entry after the request is finished
			logLevel := slog.LevelInfo
			if wrappedWriter.status >= 500 {
				logLevel = slog.LevelError
			} else if wrappedWriter.status >= 400 {
				logLevel = slog.LevelWarn
			}

			logAttrs := []any{
				slog.Int("status", wrappedWriter.status),
				slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
				slog.String("user_agent", request.UserAgent()),
			}
			if userID := holder.load(); userID != 0 {
				logAttrs = append(logAttrs, slog.Int64("user_id", userID))
			}

			requestLogger.Log(ctx, logLevel, "http_request_finished", logAttrs...)
		})
	}
}

// identityHolder lets the logger see the user resolved by an inner handler.
type identityHolder struct {
	mu     sync.Mutex
	userID int64
}

func (holder *identityHolder) store(userID int64) {
	holder.mu.Lock()
	holder.userID = userID
	holder.mu.Unlock()
}

func (holder *identityHolder) load() int64 {
	holder.mu.Lock()
	defer holder.mu.Unlock()
	return holder.userID
}

type holderKey struct{}

func withIdentityHolder(ctx context.Context, holder *identityHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, holder)
}

func recordIdentity(ctx context.Context, userID int64) {
	if holder, ok := ctx.Value(holderKey{}).(*identityHolder); ok {
		holder.store(userID)
	}
}

// # Global Rate Limiting

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is an in-process token bucket per client address.
//
// It is the coarse, always-on limit in front of every route; the
// per-endpoint auth limits in [Throttle] are shared across replicas.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitClient
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// NewIPRateLimiter creates a limiter and starts its janitor, which stops
// when ctx is cancelled.
func NewIPRateLimiter(ctx context.Context, perSecond float64, burst int) *IPRateLimiter {
	limiter := &IPRateLimiter{
		clients: make(map[string]*rateLimitClient),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				limiter.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	return limiter
}

func (limiter *IPRateLimiter) sweep() {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	for ip, client := range limiter.clients {
		if limiter.now().Sub(client.lastSeen) > constants.RateLimitClientTTL {
			delete(limiter.clients, ip)
		}
	}
}

func (limiter *IPRateLimiter) allow(ip string) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	client, found := limiter.clients[ip]
	if !found {
		client = &rateLimitClient{limiter: rate.NewLimiter(limiter.limit, limiter.burst)}
		limiter.clients[ip] = client
	}
	client.lastSeen = limiter.now()

	return client.limiter.Allow()
}

// Handler rejects requests from a client that exhausted its bucket.
func (limiter *IPRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if !limiter.allow(ctxutil.GetClientAddr(request.Context())) {
			writer.Header().Set(constants.HeaderRetryAfter, "1")
			respond.Error(writer, request, apperr.RateLimited(1))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// # Reliability & Safety

// PanicRecovery recovers from panics, logs the stack trace, and returns 500.
func PanicRecovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					stackTrace := make([]byte, 4096)
					length := runtime.Stack(stackTrace, false)

					ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "panic_recovered",
						slog.Any("error", err),
						slog.String("stack", string(stackTrace[:length])),
					)

					respond.Error(writer, request, apperr.Internal(nil))
				}
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # Response Hardening

// SecurityHeaders sets conservative browser security headers on every response.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := writer.Header()
			header.Set("X-Content-Type-Options", "nosniff")
			header.Set("X-Frame-Options", "DENY")
			header.Set("X-XSS-Protection", "1; mode=block")
			header.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			header.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			if production {
				header.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(int((365*24*time.Hour).Seconds()))+"; includeSubDomains")
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// # Cross-Origin Resource Sharing

// CORS answers cross-origin requests from the configured allow-list only.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Same-origin and non-browser requests carry no Origin
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Reflect the origin only when it is allowed
			header := writer.Header()
			header.Add("Vary", constants.HeaderOrigin)
			if allowAny || slices.Contains(allowedOrigins, origin) {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, X-Request-ID")
				header.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID, Retry-After")
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Max-Age", "300")
			}

			// 3. Pre-flight requests end here
			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Middleware Helpers

// ClientIP resolves the caller address.
//
// The socket peer is authoritative unless it is a trusted proxy. Behind a
// trusted proxy, X-Forwarded-For is walked from the right and the first hop
// outside trustedProxies wins. X-Real-IP is read only when no X-Forwarded-For
// is present. A malformed hop stops the walk at the last address seen.
func ClientIP(request *http.Request, trustedProxies []netip.Prefix) string {
	peer, err := netip.ParseAddrPort(request.RemoteAddr)
	if err != nil {
		host, _, splitErr := net.SplitHostPort(request.RemoteAddr)
		if splitErr != nil {
			return request.RemoteAddr
		}
		return host
	}

	client := peer.Addr().Unmap()
	if !isTrustedProxy(client, trustedProxies) {
		return client.String()
	}

	if hops := forwardedHops(request.Header); len(hops) > 0 {
		for index := len(hops) - 1; index >= 0; index-- {
			hop, err := netip.ParseAddr(hops[index])
			if err != nil {
				break
			}
			client = hop.Unmap()
			if !isTrustedProxy(client, trustedProxies) {
				break
			}
		}
		return client.String()
	}

	if realIP, err := netip.ParseAddr(strings.TrimSpace(request.Header.Get(constants.HeaderXRealIP))); err == nil {
		return realIP.Unmap().String()
	}
	return client.String()
}

func forwardedHops(header http.Header) []string {
	var hops []string
	for _, value := range header.Values(constants.HeaderXForwardedFor) {
		for _, hop := range strings.Split(value, ",") {
			hops = append(hops, strings.TrimSpace(hop))
		}
	}
	return hops
}

func isTrustedProxy(addr netip.Addr, trustedProxies []netip.Prefix) bool {
	for _, prefix := range trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
