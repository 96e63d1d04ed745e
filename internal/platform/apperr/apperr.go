// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the error taxonomy shared by every layer of the Komik API.

Taxonomy:

  - ValidationError: caller input malformed or missing (400).
  - NotFound: referenced entity absent (404).
  - Conflict: unique constraint violated, e.g. a duplicate slug (409).
  - Internal: persistence or storage call failed unexpectedly (500).

Cleanup failures (orphaned storage objects) are deliberately absent: they are
logged where they happen and never become the outcome of a request.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is what services return; respond.Error renders it.
// Message is client-safe. Cause is only ever logged.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// newError builds a client-facing error with no cause.
func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// # Client Errors (4xx)

// NotFound names the missing resource.
//
//	apperr.NotFound("Series") // "Series not found"
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, "NOT_FOUND", resource+" not found")
}

// Unauthorized is returned for missing or unverifiable bearer tokens.
func Unauthorized(msg string) *AppError {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", msg)
}

// Forbidden is returned when a verified caller lacks the required role.
func Forbidden(msg string) *AppError {
	return newError(http.StatusForbidden, "FORBIDDEN", msg)
}

// Conflict reports a unique constraint the caller can fix, such as a taken slug.
func Conflict(msg string) *AppError {
	return newError(http.StatusConflict, "CONFLICT", msg)
}

// ValidationError carries per-field details in the order they were found.
func ValidationError(msg string, details ...FieldError) *AppError {
	validation := newError(http.StatusBadRequest, "VALIDATION_ERROR", msg)
	validation.Details = details
	return validation
}

// PayloadTooLarge is returned when a multipart body exceeds its cap.
func PayloadTooLarge(msg string) *AppError {
	return newError(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", msg)
}

// RateLimited tells the client how long to back off.
func RateLimited(retryAfterSeconds int) *AppError {
	return newError(http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// # Server Errors (5xx)

// Internal hides cause behind a generic message; cause is only logged.
func Internal(cause error) *AppError {
	internal := newError(http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	internal.Cause = cause
	return internal
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	return As(err) != nil
}

// As extracts the [*AppError] from err's chain, or nil.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

// IsNotFound reports whether err carries a 404 [AppError].
func IsNotFound(err error) bool {
	appError := As(err)
	return appError != nil && appError.HTTPStatus == http.StatusNotFound
}

// Summary returns the message a client should see first: for validation
// failures with details, the first violated constraint prefixed by its field.
func (e *AppError) Summary() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	first := e.Details[0]
	if first.Field == "" {
		return first.Message
	}
	return first.Field + ": " + first.Message
}
