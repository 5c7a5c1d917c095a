// internal/services/errors.go
package services

import "errors"

// Sentinel errors surfaced to handlers unchanged. Validation failures are
// reported through go-playground/validator errors instead.
var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrPermissionDenied     = errors.New("permission denied")
	// ErrInvalidTransition is returned when a requested status change is not
	// in the allowed transition table for the listing's current state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict is returned after the ledger exhausts its retries on a
	// uniqueness-constraint race. Callers may retry the whole operation.
	ErrConflict = errors.New("conflicting concurrent update")
	// ErrSessionRequired is returned when an anonymous view arrives without
	// an established (ip, session) identity.
	ErrSessionRequired = errors.New("session key and ip address required for anonymous views")
	// ErrSweepInProgress is returned when an archival sweep is requested
	// while another run holds the run lock.
	ErrSweepInProgress = errors.New("archival sweep already running")
)
