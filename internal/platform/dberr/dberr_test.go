// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/lms/internal/platform/apperr"
	"github.com/taibuivan/lms/internal/platform/dberr"
)

/*
TestWrap_Classification maps driver errors onto application codes.
*/
func TestWrap_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"no_rows", pgx.ErrNoRows, apperr.CodeNotFound},
		{"wrapped_no_rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperr.CodeNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, apperr.CodeConflict},
		{"foreign_key", &pgconn.PgError{Code: "23503"}, apperr.CodeValidation},
		{"check", &pgconn.PgError{Code: "23514"}, apperr.CodeValidation},
		{"statement_timeout", &pgconn.PgError{Code: "57014"}, apperr.CodeUnavailable},
		{"other", errors.New("conn reset"), apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, apperr.CodeOf(dberr.Wrap(tt.err, "User", "find_user")))
		})
	}

	assert.NoError(t, dberr.Wrap(nil, "User", "find_user"))
	assert.True(t, dberr.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, dberr.IsUniqueViolation(errors.New("23505")))
}
