package domain

import "errors"

// Sentinel errors shared by every row store implementation.
var (
	// ErrStoreUnavailable means the backing store could not be reached,
	// rejected our credentials, or is not configured.
	ErrStoreUnavailable = errors.New("row store unavailable")

	// ErrRecordNotFound means an update addressed a row index that holds
	// no record.
	ErrRecordNotFound = errors.New("record not found")
)
