package store

import (
	"context"

	"github.com/dishcraft/menusync/models"
)

// LocalStore is the durable client-side store for catalog items and the
// mutation queue. Every compound operation commits the item write and its
// queue mutation in a single transaction, and retries a failed transaction
// once before surfacing a [StorageError].
type LocalStore interface {
	// UpsertItem creates or updates an item from partial fields. It
	// validates the name (required on creation), applies defaults
	// (price 0, quantity 0, available true), assigns a generated id when
	// absent, resets the sync status to pending, clears the problematic
	// flag, and supersedes any queue entry pending for the same item.
	UpsertItem(ctx context.Context, fields models.ItemFields) (models.Item, error)

	GetItem(ctx context.Context, id string) (models.Item, error)

	// ListItems returns every stored item including hidden ones.
	ListItems(ctx context.Context) ([]models.Item, error)

	// ListVisibleItems returns all items except those awaiting remote
	// deletion.
	ListVisibleItems(ctx context.Context) ([]models.Item, error)

	// MarkStatus transitions the item's sync status. Marking
	// pending_deletion also clears is_available atomically with the
	// status write.
	MarkStatus(ctx context.Context, id string, status models.SyncStatus) error

	// MarkSynced transitions a pending item to synced and clears the
	// problematic flag. Items no longer pending (e.g. marked for deletion
	// mid-flight) are left untouched.
	MarkSynced(ctx context.Context, id string) error

	// SetProblematic flips the persisted sync_problematic flag.
	SetProblematic(ctx context.Context, id string, problematic bool) error

	// MarkForDeletion records the user's intent to delete an item. An item
	// the remote side has never acknowledged (its queue still holds a
	// create) is hard-removed immediately and removed=true is returned;
	// otherwise the item transitions to pending_deletion with a delete
	// entry superseding the queued mutation.
	MarkForDeletion(ctx context.Context, id string) (removed bool, err error)

	// DeleteItem hard-removes the item and any queue entries referencing
	// it. Used only after the remote side confirmed deletion (or when the
	// item never reached the remote at all).
	DeleteItem(ctx context.Context, id string) error

	// Enqueue records a sync intent, superseding any entry already pending
	// for the same entity.
	Enqueue(ctx context.Context, entry models.QueueEntry) error

	// ListQueue returns all queue entries in FIFO order.
	ListQueue(ctx context.Context) ([]models.QueueEntry, error)

	Dequeue(ctx context.Context, entryID int64) error

	// ListUnqueuedPending returns items still pending or awaiting deletion
	// that no queue entry references. The sync engine uses it to self-heal
	// after a lost or corrupted queue entry.
	ListUnqueuedPending(ctx context.Context) ([]models.Item, error)
}

// MenuRepository is the authoritative server-side store of menu items.
type MenuRepository interface {
	// UpsertItem inserts the item or updates it in place when the id
	// already exists. Safe to repeat with the same payload.
	UpsertItem(ctx context.Context, item models.Item) (models.Item, error)

	// DeleteItem removes the item; returns [ErrItemNotFound] when no row
	// matched.
	DeleteItem(ctx context.Context, id string) error

	ListItems(ctx context.Context) ([]models.Item, error)

	// Ping verifies database liveness; backs the health probe endpoint.
	Ping(ctx context.Context) error
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
