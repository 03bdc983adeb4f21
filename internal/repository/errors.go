package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrBadStatus is returned by page fetchers on a non-200 response.
	ErrBadStatus = errors.New("unexpected HTTP status")
	// ErrNavigationFailed is returned when a browser session cannot load a
	// page at all (the whole product is abandoned, not a single field).
	ErrNavigationFailed = errors.New("browser navigation failed")
	// ErrElementNotFound is returned by session reads when a selector
	// matches nothing; callers degrade the field to its sentinel value.
	ErrElementNotFound = errors.New("element not found")
)
