package types

import "errors"

// Sentinel errors returned by workspace operations. Callers match them with
// errors.Is; implementations wrap them with context.
var (
	// Lookup and lifecycle.
	ErrNotFound        = errors.New("not found")
	ErrDetached        = errors.New("workspace is detached")
	ErrAlreadyAttached = errors.New("workspace is already attached")
	ErrForbidden       = errors.New("forbidden")

	// Value and schema validation.
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidValueType = errors.New("invalid value type")
	ErrInvalidFilter    = errors.New("invalid filter")
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrPropertyLimit    = errors.New("property limit reached")

	// Uniqueness.
	ErrConflict = errors.New("conflict")

	// Any failure of the backing store that is not one of the above.
	ErrStore = errors.New("store error")
)
