// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/realestate/internal/platform/apperr"
)

// SQLSTATE codes the storage layer reacts to.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// UniqueViolation reports a failed unique constraint.
//
// Constraint carries the index name so repositories can tell which column
// collided (e.g. "account_email_key" vs "account_username_key").
type UniqueViolation struct {
	Constraint string
	Cause      error
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique violation on %q", e.Constraint)
}

func (e *UniqueViolation) Unwrap() error { return e.Cause }

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeUniqueViolation
}

// IsCheckViolation reports whether err is a CHECK constraint failure (SQLSTATE 23514).
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeCheckViolation
}

// Wrap inspects a database error and wraps it into a meaningful error.
// It hides internal database details from the client while classifying the error type.
//
// Unique violations are returned as [*UniqueViolation] so the caller can
// translate them into a domain error; everything else unknown is Internal.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint mapping
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return &UniqueViolation{Constraint: pgErr.ConstraintName, Cause: err}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}
