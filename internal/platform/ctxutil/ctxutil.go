// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
//
// Identity is deliberately absent here: the resolved user lives in the
// request scope owned by the pipeline package.
package ctxutil

import (
	"context"
	"log/slog"
	"sync"

	"github.com/taibuivan/yomira-accounts/internal/platform/ctxkey"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Access Log Annotations

// Annotations collects attributes that downstream code wants on the access
// log line written after the response. Safe for concurrent use.
type Annotations struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// Attrs returns a copy of the collected attributes.
func (annotations *Annotations) Attrs() []slog.Attr {
	annotations.mu.Lock()
	defer annotations.mu.Unlock()
	return append([]slog.Attr(nil), annotations.attrs...)
}

// WithAnnotations returns a context carrying a fresh, empty [Annotations].
func WithAnnotations(ctx context.Context) (context.Context, *Annotations) {
	annotations := &Annotations{}
	return context.WithValue(ctx, ctxkey.KeyAnnotations, annotations), annotations
}

// Annotate appends attrs to the request's access log line.
// It is a no-op when the logging middleware is not mounted.
func Annotate(ctx context.Context, attrs ...slog.Attr) {
	annotations, ok := ctx.Value(ctxkey.KeyAnnotations).(*Annotations)
	if !ok {
		return
	}
	annotations.mu.Lock()
	defer annotations.mu.Unlock()
	annotations.attrs = append(annotations.attrs, attrs...)
}
