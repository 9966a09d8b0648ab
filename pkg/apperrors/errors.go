package apperrors

import "errors"

// Sentinel errors shared across the service. The HTTP layer maps these to
// status codes; internals are wrapped with %w and logged server-side only.
var (
	// ErrUnauthenticated means no credential was presented at all.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden covers invalid or expired credentials and role-check
	// failures. Verification internals are never surfaced.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned when required fields are missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is for plain missing records with no ownership dimension
	// (products, users).
	ErrNotFound = errors.New("not found")

	// ErrNotFoundOrUnauthorized deliberately merges "no such order" and
	// "not your order" so callers cannot enumerate order ids.
	ErrNotFoundOrUnauthorized = errors.New("order not found")

	// ErrInvalidState rejects an illegal status transition, e.g. re-ordering
	// an order that is already placed.
	ErrInvalidState = errors.New("invalid order state")

	// ErrOrderPlacementFailed means the order transaction rolled back; no
	// partial order exists.
	ErrOrderPlacementFailed = errors.New("order placement failed")

	// ErrDuplicateRequest is returned when an idempotency key is replayed
	// inside its deduplication window.
	ErrDuplicateRequest = errors.New("duplicate request")
)
