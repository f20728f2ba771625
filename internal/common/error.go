// Package common defines shared constants and sentinel errors used across
// the FileKeeper server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors (malformed or rejected user input).
	ErrorValidation = errors.New("validation error")

	// Ingestion pipeline errors.
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrUndetectable    = errors.New("undetectable file type")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
