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

	"github.com/taibuivan/komik/internal/platform/apperr"
)

// SQLSTATE codes the catalog cares about.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
//
// Parameters:
//   - err: the driver error
//   - resource: the human name used in NotFound / Conflict messages (e.g. "Series")
//
// Mapping:
//   - pgx.ErrNoRows → 404
//   - 23505 unique violation → 409
//   - 23503 foreign key / 23514 check violation → 400
//   - anything else → 500
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// Already classified further down the stack.
	if apperr.IsAppError(err) {
		return err
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	// 2. Constraint mapping
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case CodeUniqueViolation:
			conflict := apperr.Conflict(fmt.Sprintf("%s already exists", resource))
			conflict.Cause = err
			return conflict
		case CodeForeignKeyViolation:
			invalid := apperr.ValidationError("Referenced entity does not exist",
				apperr.FieldError{Field: pgError.ConstraintName, Message: "Referenced entity does not exist"})
			invalid.Cause = err
			return invalid
		case CodeCheckViolation:
			invalid := apperr.ValidationError("Value violates a constraint",
				apperr.FieldError{Field: pgError.ConstraintName, Message: "Value violates a constraint"})
			invalid.Cause = err
			return invalid
		}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == CodeUniqueViolation
}
