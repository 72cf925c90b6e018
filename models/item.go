package models

import "time"

// SyncStatus is the durable synchronization status of an item. The value is
// monotonic along pending -> synced, or pending -> pending_deletion -> removed;
// a synced item returns to pending only through a new local edit.
type SyncStatus string

const (
	SyncStatusPending         SyncStatus = "pending"
	SyncStatusSynced          SyncStatus = "synced"
	SyncStatusPendingDeletion SyncStatus = "pending_deletion"
)

// SyncState is the synchronization state reported to the surrounding
// application. Unlike SyncStatus it includes the derived sync_problematic
// state, which means automatic retries have been exhausted without success.
type SyncState string

const (
	SyncStatePending         SyncState = "pending"
	SyncStateSynced          SyncState = "synced"
	SyncStatePendingDeletion SyncState = "pending_deletion"
	SyncStateProblematic     SyncState = "sync_problematic"
)

// Item is a sellable catalog entry (dish).
// The Image field carries the embedded picture as base64-encoded text and may
// dominate the serialized size of the item.
type Item struct {
	// ID is the immutable, globally unique identifier of the item,
	// assigned at creation time.
	ID string `json:"id"`

	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`

	// Image is the optional embedded picture, base64-encoded.
	Image string `json:"image,omitempty"`

	// ImageDropped is set when the payload optimizer had to remove the
	// image entirely to fit the transport budget.
	ImageDropped bool `json:"image_dropped,omitempty"`

	AvailableQuantity int  `json:"available_quantity"`
	IsAvailable       bool `json:"is_available"`

	// SyncStatus and Problematic are client-side bookkeeping; the remote
	// side ignores them.
	SyncStatus  SyncStatus `json:"sync_status,omitempty"`
	Problematic bool       `json:"problematic,omitempty"`

	// LocalTimestamp records the creation time on this device, UpdatedAt
	// the last local modification. Both are informational only; no conflict
	// resolution is derived from them (last local write wins).
	LocalTimestamp time.Time `json:"local_timestamp"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Hidden reports whether the item must be excluded from visible listings.
// Visibility is derived from the sync status alone: an item awaiting remote
// deletion still exists in storage but is no longer shown.
func (i Item) Hidden() bool {
	return i.SyncStatus == SyncStatusPendingDeletion
}

// State maps the stored status plus the problematic flag to the state
// exposed via the application contract.
func (i Item) State() SyncState {
	if i.Problematic {
		return SyncStateProblematic
	}
	return SyncState(i.SyncStatus)
}

// ItemFields is the partial-update input accepted from the surrounding
// application. Nil pointer fields are "unset" and keep the existing value
// (or receive a default on creation: price 0, quantity 0, available true).
type ItemFields struct {
	// ID selects the item to update; empty means "create a new item".
	ID string `json:"id,omitempty"`

	Name              string   `json:"name"`
	Description       *string  `json:"description,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	Image             *string  `json:"image,omitempty"`
	AvailableQuantity *int     `json:"available_quantity,omitempty"`
	IsAvailable       *bool    `json:"is_available,omitempty"`
}
