package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrItemNotFound is returned when a query or update targets a catalog
	// item that does not exist in the database.
	ErrItemNotFound = errors.New("item was not found")

	// ErrQueueEntryNotFound is returned when a dequeue targets a queue
	// entry that no longer exists.
	ErrQueueEntryNotFound = errors.New("queue entry was not found")

	// ErrEmptyName is returned when an item is created without a name.
	ErrEmptyName = errors.New("item name must not be empty")

	// ErrNegativePrice is returned when an item carries a negative price.
	ErrNegativePrice = errors.New("item price must not be negative")

	// ErrTemporarilyUnavailable is returned by the server repository when
	// the underlying database reported a transient failure (connection
	// loss, deadlock) that is worth retrying on the caller's side.
	ErrTemporarilyUnavailable = errors.New("storage temporarily unavailable")
)

// StorageError wraps a storage-engine failure (corruption, quota, I/O). It is
// surfaced to the caller as-is after one transparent retry of the failed
// transaction; no further automatic recovery is attempted.
type StorageError struct {
	// Op names the repository operation that failed.
	Op string
	// Err is the underlying driver error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err carries a *StorageError anywhere in its
// chain.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// domainError reports whether err represents a domain condition (not found,
// validation) rather than a storage-engine failure. Domain errors are
// returned verbatim and never retried.
func domainError(err error) bool {
	return errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrQueueEntryNotFound) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrNegativePrice)
}
