package domain

import "errors"

// Sentinel errors shared across services and HTTP handlers, following the
// teacher's `var Err... = errors.New(...)` convention (auth_service.go).
var (
	// ErrUnauthorized maps to HTTP 401 (§7 AuthError).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation maps to HTTP 400 (§7 ValidationError).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrWebhookDisabled is returned by exfiltration when the target webhook
	// has been disabled by an operator.
	ErrWebhookDisabled = errors.New("webhook disabled")
	// ErrConfig is returned on fatal configuration problems (§7 ConfigError).
	ErrConfig = errors.New("configuration error")
	// ErrSubmitInProgress reports that a submission is already running. The
	// Scheduler does not return it: overlapping fires wait for the running
	// one instead of being skipped (§5: submissions are mutually exclusive).
	ErrSubmitInProgress = errors.New("submission already in progress")
)
