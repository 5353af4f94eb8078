// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pipeline_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-accounts/internal/platform/pipeline"
	"github.com/taibuivan/yomira-accounts/internal/users/account"
)

/*
TestRun_InterceptorsChainInOrder verifies each interceptor sees its
predecessor's scope and the handler sees the last one.
*/
func TestRun_InterceptorsChainInOrder(t *testing.T) {
	var order []string

	first := func(_ *http.Request, scope pipeline.Scope) pipeline.Scope {
		order = append(order, "first")
		scope.User = &account.User{ID: "user-1"}
		return scope
	}
	second := func(_ *http.Request, scope pipeline.Scope) pipeline.Scope {
		order = append(order, "second")
		require.NotNil(t, scope.User)
		scope.User.Username = "alice"
		return scope
	}

	var seen pipeline.Scope
	handler := pipeline.Run(first, second)(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		var ok bool
		seen, ok = pipeline.FromContext(request.Context())
		require.True(t, ok)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second"}, order)
	require.NotNil(t, seen.User)
	assert.Equal(t, "alice", seen.User.Username)
	assert.Nil(t, seen.Session)
}

/*
TestRun_ResolvesOncePerRequest ensures nested pipelines do not re-run interceptors.
*/
func TestRun_ResolvesOncePerRequest(t *testing.T) {
	calls := 0
	count := func(_ *http.Request, scope pipeline.Scope) pipeline.Scope {
		calls++
		return scope
	}

	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	handler := pipeline.Run(count)(pipeline.Run(count)(inner))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 1, calls)
}

func TestFromContext_Missing(t *testing.T) {
	_, ok := pipeline.FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
