package models

import "time"

// OperationType identifies the kind of mutation a queue entry represents.
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// QueueEntry is a recorded intent to synchronize one item mutation to the
// remote side. Entries are processed in FIFO order by ID and removed only
// after the remote side positively acknowledges the operation (or the item
// itself is hard-removed locally).
//
// At most one entry exists per EntityID: a newer mutation supersedes the
// pending one instead of appending a second entry.
type QueueEntry struct {
	// ID is the queue-local identifier (autoincrement). Entries synthesized
	// by the self-healing pass carry ID 0 and are never dequeued by ID.
	ID int64 `json:"id"`

	OperationType OperationType `json:"operation_type"`

	// EntityID references the item this entry belongs to.
	EntityID string `json:"entity_id"`

	// PayloadSnapshot is a copy of the item taken at enqueue time. The sync
	// engine re-reads the latest local state before sending, so the snapshot
	// mainly serves debugging and recovery.
	PayloadSnapshot Item `json:"payload_snapshot"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}
