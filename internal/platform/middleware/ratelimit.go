// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/constants"
	"github.com/taibuivan/lms/internal/platform/ctxutil"
	"github.com/taibuivan/lms/internal/platform/respond"
)

// Limiter is a shared counter store for per-endpoint limits.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// RejectionRecorder observes requests refused by [Throttle].
type RejectionRecorder interface {
	RateLimited(scope string)
}

// Throttle allows at most limit requests per client address per window on
// the wrapped route.
//
// A limiter failure is logged and the request is let through.
func Throttle(limiter Limiter, recorder RejectionRecorder, scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key := scope + ":" + ctxutil.GetClientAddr(request.Context())

			allowed, retryAfter, err := limiter.Allow(request.Context(), key, limit, window)
			if err != nil {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "rate_limiter_unavailable",
					slog.String("scope", scope),
					slog.Any("error", err),
				)
				next.ServeHTTP(writer, request)
				return
			}

			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				if recorder != nil {
					recorder.RateLimited(scope)
				}
				writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(seconds))
				respond.Error(writer, request, apperr.RateLimited(seconds))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
