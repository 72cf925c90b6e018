// Package adapter provides transport-layer abstractions for communicating with
// the remote menu store.
//
// The primary abstraction is [RemoteGateway], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPRemoteGateway]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrPayloadTooLarge] for 413, [ErrValidation] for 422).
package adapter

import (
	"context"

	"github.com/dishcraft/menusync/models"
)

// RemoteGateway defines transport-agnostic communication with the remote menu
// store. Implementations are responsible for serialisation and for mapping
// transport-level failures to the sentinel values defined in this package, so
// that the sync engine can classify errors without knowing the protocol.
type RemoteGateway interface {
	// UpsertItem pushes the full item state to the remote store. The remote
	// operation is idempotent: repeating the call with the same payload has
	// no additional effect. Failures are classified via the package error
	// sentinels ([ErrNetwork], [ErrServer], [ErrPayloadTooLarge],
	// [ErrValidation]).
	UpsertItem(ctx context.Context, item models.Item) error

	// DeleteItem removes the item from the remote store. A remote 404 is
	// treated as success: the item is already absent, which is the state
	// the caller wanted.
	DeleteItem(ctx context.Context, id string) error

	// ListItems fetches the authoritative menu from the remote store.
	ListItems(ctx context.Context) ([]models.Item, error)

	// Health probes the remote health endpoint. A nil return means the
	// remote store is reachable and its storage is live.
	Health(ctx context.Context) error
}
