package service

import (
	"context"
	"time"

	"github.com/dishcraft/menusync/models"
)

// CatalogService defines the application-facing contract for managing menu
// items. Every mutation is applied to the durable local store first and
// reported back immediately; propagation to the remote store happens in the
// background and never blocks the caller.
type CatalogService interface {
	// CreateOrUpdate creates a new item (when fields.ID is empty) or applies
	// a partial update to an existing one. The item is persisted locally
	// with sync status pending, its failure bookkeeping is reset so the
	// engine retries it afresh, and a background sync pass is triggered.
	// Returns the stored item.
	CreateOrUpdate(ctx context.Context, fields models.ItemFields) (models.Item, error)

	// Remove records the intent to delete an item. An item the remote store
	// never saw is removed outright (removed=true); otherwise it disappears
	// from visible listings and is deleted remotely on the next sync pass.
	Remove(ctx context.Context, id string) (removed bool, err error)

	// Get returns the single item with the given id, including hidden ones.
	Get(ctx context.Context, id string) (models.Item, error)

	// SyncState reports the synchronization state of the item with the given
	// id, including the derived sync_problematic state.
	SyncState(ctx context.Context, id string) (models.SyncState, error)

	// List returns the items visible to the user: everything except items
	// awaiting remote deletion.
	List(ctx context.Context) ([]models.Item, error)

	// ListAll returns every locally stored item including hidden ones.
	ListAll(ctx context.Context) ([]models.Item, error)
}

// SyncService drains the local mutation queue towards the remote store.
type SyncService interface {
	// SyncNow runs one synchronization pass. Passes coalesce: when a pass
	// is already running, the call returns immediately without error and
	// without queueing another pass.
	SyncNow(ctx context.Context) error

	// ResetAttempts clears the retry bookkeeping for an item so the next
	// pass tries it immediately, regardless of any backoff in effect.
	ResetAttempts(id string)
}

// SyncJob is the background worker that keeps the catalog converging: it
// triggers sync passes on a timer and whenever connectivity is regained.
type SyncJob interface {
	// Start launches the background goroutine. Any previously running job
	// is stopped first. If interval is zero or negative it defaults to one
	// minute.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()

	// Run starts the job detached from any caller lifecycle, satisfying the
	// background worker contract.
	Run()
}
