// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lms/internal/api"
	"github.com/taibuivan/lms/internal/content"
	"github.com/taibuivan/lms/internal/platform/config"
	"github.com/taibuivan/lms/internal/platform/metrics"
	"github.com/taibuivan/lms/internal/users/account"
	"github.com/taibuivan/lms/internal/users/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, deps api.HealthDependencies) http.Handler {
	t.Helper()

	cfg := &config.Config{
		ServerPort:         "0",
		Environment:        "production",
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
		CORSOrigins:        "https://app.example.com",
	}

	liveness, readiness := api.NewHealthHandlers(deps, discardLogger())
	server := api.NewServer(t.Context(), cfg, discardLogger(), metrics.New(), api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(nil, nil, nil, nil, auth.RouteLimits{}),
		Account:   account.NewHandler(nil, nil),
		Content:   content.NewHandler(nil, nil),
	})
	return server.Handler()
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

/*
TestReadiness_ReportsEachDependency returns 503 with the failing check named.
*/
func TestReadiness_ReportsEachDependency(t *testing.T) {
	handler := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
		CheckCache:    func(context.Context) error { return errors.New("connection refused") },
	})

	recorder := get(handler, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var body struct {
		Data struct {
			Status string `json:"status"`
			Checks []struct {
				Name  string `json:"name"`
				OK    bool   `json:"ok"`
				Error string `json:"error"`
			} `json:"checks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))

	assert.Equal(t, "degraded", body.Data.Status)
	require.Len(t, body.Data.Checks, 2)
	assert.True(t, body.Data.Checks[0].OK)
	assert.Equal(t, "redis", body.Data.Checks[1].Name)
	assert.Equal(t, "connection refused", body.Data.Checks[1].Error)
}

/*
TestReadiness_Ready returns 200 when every dependency answers.
*/
func TestReadiness_Ready(t *testing.T) {
	handler := newTestServer(t, api.HealthDependencies{
		CheckDatabase: func(context.Context) error { return nil },
	})

	recorder := get(handler, "/ready")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"ready"`)
}

/*
TestServer_InfrastructureRoutes covers liveness, metrics and response hardening.
*/
func TestServer_InfrastructureRoutes(t *testing.T) {
	handler := newTestServer(t, api.HealthDependencies{})

	health := get(handler, "/health")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "nosniff", health.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, health.Header().Get("Strict-Transport-Security"))
	assert.NotEmpty(t, health.Header().Get("X-Request-ID"))

	scrape := get(handler, "/metrics")
	assert.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(), "http_requests_total")
}

/*
TestServer_ProtectedRoutesRequireToken rejects anonymous calls before any handler runs.
*/
func TestServer_ProtectedRoutesRequireToken(t *testing.T) {
	handler := newTestServer(t, api.HealthDependencies{})

	for _, path := range []string{
		"/api/v1/users/me",
		"/api/v1/users/",
		"/api/v1/courses/1/permissions",
		"/api/v1/posts/1/permissions",
	} {
		t.Run(path, func(t *testing.T) {
			recorder := get(handler, path)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Equal(t, "Bearer", recorder.Header().Get("WWW-Authenticate"))
		})
	}

	assert.Equal(t, http.StatusNotFound, get(handler, "/api/v1/unknown").Code)
}
