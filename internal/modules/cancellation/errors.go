package cancellation

import "errors"

var (
	ErrNotFound                  = errors.New("booking not found")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	// ErrPersistenceConflict means another writer raced the cancellation;
	// the workflow retries the whole call once before surfacing it.
	ErrPersistenceConflict = errors.New("concurrent booking modification")
)
