// Package common defines shared constants and sentinel errors used across
// HealthTrend components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Remote sheet errors. Transport failures are wrapped into one of these
	// so the scheduler can decide whether a retry makes sense.
	ErrUnavailable     = errors.New("remote unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limited")
	ErrSheetNotFound   = errors.New("sheet not found")
	ErrInvalidSheetURL = errors.New("invalid sheet url")

	// Validation errors.
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidSlot     = errors.New("invalid time slot")
	ErrInvalidSeverity = errors.New("invalid severity")

	// Local precondition errors.
	ErrNotSignedIn   = errors.New("not signed in")
	ErrNoCredentials = errors.New("no stored credentials")

	// ErrSyncInProgress is returned when a sync is requested while another
	// one is still running.
	ErrSyncInProgress = errors.New("sync already in progress")
)
