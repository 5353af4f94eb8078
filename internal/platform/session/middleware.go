// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/yomira-accounts/internal/platform/ctxutil"
)

// Middleware loads the session from store and attaches it to the request context.
//
// The session is saved exactly once: just before the response header is
// written, or after the handler returns if it never wrote anything. A failed
// save turns the response into a 500 so a login is never reported as
// successful without a cookie to back it.
func Middleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			logger := ctxutil.GetLogger(request.Context())

			// 1. Load (or create) the session
			session, err := store.Load(request.Context(), request)
			if err != nil {
				logger.ErrorContext(request.Context(), "session_load_failed", slog.Any("error", err))
				http.Error(writer, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}

			// 2. Defer the commit to the first write
			committing := &committingWriter{
				ResponseWriter: writer,
				request:        request,
				store:          store,
				session:        session,
				logger:         logger,
			}

			next.ServeHTTP(committing, request.WithContext(WithSession(request.Context(), session)))

			// 3. Handlers that wrote nothing still get their session saved
			if !committing.done {
				committing.WriteHeader(http.StatusOK)
			}
		})
	}
}

// committingWriter saves the session right before the header goes out.
type committingWriter struct {
	http.ResponseWriter

	request *http.Request
	store   Store
	session *Session
	logger  *slog.Logger

	done   bool
	failed bool
}

func (writer *committingWriter) commit() error {
	if writer.done {
		return nil
	}
	writer.done = true
	return writer.store.Save(writer.request.Context(), writer.ResponseWriter, writer.session)
}

func (writer *committingWriter) WriteHeader(status int) {
	if writer.done {
		if !writer.failed {
			writer.ResponseWriter.WriteHeader(status)
		}
		return
	}

	if err := writer.commit(); err != nil {
		writer.failed = true
		writer.logger.ErrorContext(writer.request.Context(), "session_save_failed", slog.Any("error", err))

		// Drop whatever the handler staged (redirect target, content type)
		header := writer.ResponseWriter.Header()
		header.Del("Location")
		http.Error(writer.ResponseWriter, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writer.ResponseWriter.WriteHeader(status)
}

func (writer *committingWriter) Write(body []byte) (int, error) {
	if !writer.done {
		writer.WriteHeader(http.StatusOK)
	}
	if writer.failed {
		return len(body), nil
	}
	return writer.ResponseWriter.Write(body)
}

// Unwrap exposes the underlying writer to [http.ResponseController].
func (writer *committingWriter) Unwrap() http.ResponseWriter {
	return writer.ResponseWriter
}
