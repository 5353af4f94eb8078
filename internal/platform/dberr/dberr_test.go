// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-accounts/internal/platform/apperr"
	"github.com/taibuivan/yomira-accounts/internal/platform/dberr"
)

func TestWrap(t *testing.T) {
	uniqueViolation := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"no_rows", pgx.ErrNoRows, apperr.CodeNotFound},
		{"unique_violation", uniqueViolation, apperr.CodeConflict},
		{"wrapped_unique_violation", fmt.Errorf("insert: %w", uniqueViolation), apperr.CodeConflict},
		{"other_pg_error", &pgconn.PgError{Code: pgerrcode.SyntaxError}, apperr.CodeStoreUnavailable},
		{"io_failure", errors.New("connection reset by peer"), apperr.CodeStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.err, "test_action")
			assert.True(t, apperr.HasCode(wrapped, tt.code))
		})
	}

	assert.NoError(t, dberr.Wrap(nil, "test_action"))
	assert.ErrorIs(t, dberr.Wrap(fmt.Errorf("scan: %w", pgx.ErrNoRows), "test_action"), dberr.ErrNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, dberr.IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.False(t, dberr.IsUniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}))
	assert.False(t, dberr.IsUniqueViolation(errors.New("plain")))
}
