// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
	"github.com/taibuivan/yomira-accounts/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-accounts/internal/platform/middleware"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))
	})

	t.Run("propagated", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderXRequestID, "client-id")

		handler.ServeHTTP(httptest.NewRecorder(), request)
		assert.Equal(t, "client-id", seen)
	})

	t.Run("oversized_is_replaced", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderXRequestID, strings.Repeat("x", 500))

		handler.ServeHTTP(httptest.NewRecorder(), request)
		assert.Len(t, seen, 36)
	})
}

/*
TestStructuredLogger verifies the access log line carries status and downstream annotations.
*/
func TestStructuredLogger(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	handler := middleware.StructuredLogger(logger)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.NotEqual(t, slog.Default(), ctxutil.GetLogger(request.Context()))
		ctxutil.Annotate(request.Context(), slog.String("user_id", "user-1"))
		writer.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	assert.Equal(t, "http_request_finished", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, "/missing", entry["path"])
	assert.Equal(t, "user-1", entry["user_id"])
}

func TestPanicRecovery(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, recorder.Body.String(), "boom")
	assert.Contains(t, buffer.String(), "panic_recovered")
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote_addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"real_ip", map[string]string{constants.HeaderXRealIP: "1.1.1.1"}, "10.0.0.1:5555", "1.1.1.1"},
		{"forwarded_for", map[string]string{constants.HeaderXForwardedFor: "2.2.2.2, 10.0.0.2"}, "10.0.0.1:5555", "2.2.2.2"},
		{"no_port", nil, "10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remote
			for key, value := range tt.headers {
				request.Header.Set(key, value)
			}
			assert.Equal(t, tt.want, middleware.RealIP(request))
		})
	}
}

/*
TestRateLimiter verifies the burst is honoured per IP and rejections carry Retry-After.
*/
func TestRateLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	}))

	send := func(ip string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodPost, "/login", nil)
		request.RemoteAddr = ip + ":1234"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1").Code)

	rejected := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.NotEmpty(t, rejected.Header().Get(constants.HeaderRetryAfter))
	assert.Contains(t, rejected.Body.String(), "RATE_LIMITED")

	// Other clients keep their own bucket
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2").Code)
}

func TestRateLimiter_Prune(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1)
	assert.Zero(t, limiter.Reserve("a"))
	assert.Zero(t, limiter.Reserve("b"))

	assert.Equal(t, 0, limiter.Prune(time.Now().Add(-time.Minute)))
	assert.Equal(t, 2, limiter.Prune(time.Now().Add(time.Minute)))

	// A pruned client starts with a full bucket again
	assert.Zero(t, limiter.Reserve("a"))
}
