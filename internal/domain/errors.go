package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// Verification-flow failures. All recoverable: the caller retries later,
	// re-requests a code, or falls back to the other channel.
	ErrRateLimited      = errors.New("rate limited")
	ErrCodeMismatch     = errors.New("code mismatch")
	ErrCodeExpired      = errors.New("code expired")
	ErrDeliveryFailed   = errors.New("delivery failed")
	ErrSMSNotConfigured = errors.New("sms provider not configured")
)
