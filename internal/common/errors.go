// Package common defines shared constants and sentinel errors used across
// the accountability server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Input errors, surfaced to clients as 400.
	ErrValidation = errors.New("validation error")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrStore    = errors.New("store error")

	// Delivery failures of outbound notifications. Logged only.
	ErrNotification = errors.New("notification error")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
