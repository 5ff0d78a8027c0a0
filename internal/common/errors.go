// Package common defines shared constants and sentinel errors used across
// the DocForge client and server layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Workflow validation errors, detected before any network call.
	ErrNoFilesSelected  = errors.New("no files selected")
	ErrInvalidPageRange = errors.New("invalid page range")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrMergeNeedsTwo    = errors.New("merge requires at least two files")

	// Quota errors; a rejection is terminal for that invocation.
	ErrBatchTooLarge = errors.New("batch exceeds plan limit")
	ErrFileTooLarge  = errors.New("file exceeds plan size limit")
	ErrMonthlyLimit  = errors.New("monthly operation limit reached")

	// Session / plan gating.
	ErrSessionExpired  = errors.New("session expired")
	ErrPremiumRequired = errors.New("premium plan required")

	// Token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
