package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"context"

	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/utils"
	"github.com/dishcraft/menusync/models"
)

// localCatalogRepository is the SQLite-backed implementation of [LocalStore].
// Item writes and their queue mutations always commit together; every failed
// transaction is transparently retried once before a [StorageError] is
// surfaced to the caller.
type localCatalogRepository struct {
	*ClientDB
	logger *logger.Logger
	ids    *utils.UUIDGenerator
	now    func() time.Time
}

// NewLocalCatalogRepository constructs a [LocalStore] backed by the provided
// SQLite connection and logger.
func NewLocalCatalogRepository(db *ClientDB, logger *logger.Logger) LocalStore {
	return &localCatalogRepository{
		ClientDB: db,
		logger:   logger,
		ids:      utils.NewUUIDGenerator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *localCatalogRepository) UpsertItem(ctx context.Context, fields models.ItemFields) (models.Item, error) {
	log := logger.FromContext(ctx)

	if fields.Price != nil && *fields.Price < 0 {
		return models.Item{}, ErrNegativePrice
	}

	var item models.Item
	err := l.withTx(ctx, "upsert item", func(tx *sql.Tx) error {
		now := l.now()

		op := models.OperationUpdate
		if fields.ID == "" {
			if strings.TrimSpace(fields.Name) == "" {
				return ErrEmptyName
			}

			item = models.Item{
				ID:             l.ids.Generate(),
				Name:           fields.Name,
				IsAvailable:    true,
				SyncStatus:     models.SyncStatusPending,
				LocalTimestamp: now,
				UpdatedAt:      now,
			}
			applyFields(&item, fields)

			if _, err := tx.ExecContext(ctx, insertItem,
				item.ID,
				item.Name,
				item.Description,
				item.Price,
				item.Image,
				item.ImageDropped,
				item.AvailableQuantity,
				item.IsAvailable,
				item.SyncStatus,
				item.Problematic,
				item.LocalTimestamp,
				item.UpdatedAt,
			); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
			op = models.OperationCreate
		} else {
			existing, err := l.getItemTx(ctx, tx, fields.ID)
			if err != nil {
				return err
			}

			item = existing
			applyFields(&item, fields)
			item.SyncStatus = models.SyncStatusPending
			item.Problematic = false
			item.UpdatedAt = now

			if _, err = tx.ExecContext(ctx, updateItem,
				item.Name,
				item.Description,
				item.Price,
				item.Image,
				item.ImageDropped,
				item.AvailableQuantity,
				item.IsAvailable,
				item.SyncStatus,
				item.Problematic,
				item.UpdatedAt,
				item.ID,
			); err != nil {
				return fmt.Errorf("update item: %w", err)
			}

			// An edit to an item the remote side never acknowledged keeps
			// its create semantics in the queue.
			entry, qerr := l.getQueueEntryTx(ctx, tx, item.ID)
			if qerr == nil && entry.OperationType == models.OperationCreate {
				op = models.OperationCreate
			} else if qerr != nil && !errors.Is(qerr, ErrQueueEntryNotFound) {
				return qerr
			}
		}

		return l.enqueueTx(ctx, tx, models.QueueEntry{
			OperationType:   op,
			EntityID:        item.ID,
			PayloadSnapshot: item,
			EnqueuedAt:      now,
		})
	})
	if err != nil {
		log.Err(err).
			Str("func", "localCatalogRepository.UpsertItem").
			Str("item_id", fields.ID).
			Msg("failed to upsert item")
		return models.Item{}, err
	}

	return item, nil
}

func (l *localCatalogRepository) GetItem(ctx context.Context, id string) (models.Item, error) {
	log := logger.FromContext(ctx)

	item, err := scanItem(l.DB.QueryRowContext(ctx, getItem, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Item{}, ErrItemNotFound
		}
		log.Err(err).
			Str("func", "localCatalogRepository.GetItem").
			Str("item_id", id).
			Msg("failed to query item")
		return models.Item{}, &StorageError{Op: "get item", Err: err}
	}

	return item, nil
}

func (l *localCatalogRepository) ListItems(ctx context.Context) ([]models.Item, error) {
	return l.listItemsQuery(ctx, listItems, "localCatalogRepository.ListItems")
}

func (l *localCatalogRepository) ListVisibleItems(ctx context.Context) ([]models.Item, error) {
	return l.listItemsQuery(ctx, listVisibleItems, "localCatalogRepository.ListVisibleItems")
}

func (l *localCatalogRepository) ListUnqueuedPending(ctx context.Context) ([]models.Item, error) {
	return l.listItemsQuery(ctx, listUnqueuedPending, "localCatalogRepository.ListUnqueuedPending")
}

func (l *localCatalogRepository) MarkStatus(ctx context.Context, id string, status models.SyncStatus) error {
	log := logger.FromContext(ctx)

	var (
		res sql.Result
		err error
	)
	if status == models.SyncStatusPendingDeletion {
		// is_available is cleared atomically with the status write
		res, err = l.DB.ExecContext(ctx, markItemForDeletion, l.now(), id)
	} else {
		res, err = l.DB.ExecContext(ctx, markItemStatus, status, l.now(), id)
	}
	if err != nil {
		log.Err(err).
			Str("func", "localCatalogRepository.MarkStatus").
			Str("item_id", id).
			Str("status", string(status)).
			Msg("failed to mark item status")
		return &StorageError{Op: "mark status", Err: err}
	}

	return affectedOrNotFound(res, ErrItemNotFound)
}

func (l *localCatalogRepository) MarkSynced(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	// No row matching means the item left the pending state mid-flight
	// (e.g. the user marked it for deletion); the next pass re-reads the
	// latest state, so that is not an error.
	if _, err := l.DB.ExecContext(ctx, markItemSynced, l.now(), id); err != nil {
		log.Err(err).
			Str("func", "localCatalogRepository.MarkSynced").
			Str("item_id", id).
			Msg("failed to mark item synced")
		return &StorageError{Op: "mark synced", Err: err}
	}

	return nil
}

func (l *localCatalogRepository) SetProblematic(ctx context.Context, id string, problematic bool) error {
	log := logger.FromContext(ctx)

	res, err := l.DB.ExecContext(ctx, setItemProblematic, problematic, id)
	if err != nil {
		log.Err(err).
			Str("func", "localCatalogRepository.SetProblematic").
			Str("item_id", id).
			Bool("problematic", problematic).
			Msg("failed to set problematic flag")
		return &StorageError{Op: "set problematic", Err: err}
	}

	return affectedOrNotFound(res, ErrItemNotFound)
}

func (l *localCatalogRepository) MarkForDeletion(ctx context.Context, id string) (bool, error) {
	log := logger.FromContext(ctx)

	removed := false
	err := l.withTx(ctx, "mark for deletion", func(tx *sql.Tx) error {
		item, err := l.getItemTx(ctx, tx, id)
		if err != nil {
			return err
		}

		entry, qerr := l.getQueueEntryTx(ctx, tx, id)
		if qerr != nil && !errors.Is(qerr, ErrQueueEntryNotFound) {
			return qerr
		}

		// An item whose create was never acknowledged remotely is dropped
		// locally; no remote call is required to succeed.
		if qerr == nil && entry.OperationType == models.OperationCreate {
			if _, err = tx.ExecContext(ctx, deleteQueueByEntity, id); err != nil {
				return fmt.Errorf("delete queue entries: %w", err)
			}
			if _, err = tx.ExecContext(ctx, deleteItemByID, id); err != nil {
				return fmt.Errorf("delete item: %w", err)
			}
			removed = true
			return nil
		}

		now := l.now()
		if _, err = tx.ExecContext(ctx, markItemForDeletion, now, id); err != nil {
			return fmt.Errorf("mark item for deletion: %w", err)
		}

		item.SyncStatus = models.SyncStatusPendingDeletion
		item.IsAvailable = false
		item.UpdatedAt = now

		return l.enqueueTx(ctx, tx, models.QueueEntry{
			OperationType:   models.OperationDelete,
			EntityID:        id,
			PayloadSnapshot: item,
			EnqueuedAt:      now,
		})
	})
	if err != nil {
		log.Err(err).
			Str("func", "localCatalogRepository.MarkForDeletion").
			Str("item_id", id).
			Msg("failed to mark item for deletion")
		return false, err
	}

	return removed, nil
}

func (l *localCatalogRepository) DeleteItem(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	err := l.withTx(ctx, "delete item", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteQueueByEntity, id); err != nil {
			return fmt.Errorf("delete queue entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, deleteItemByID, id); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Err(err).
			Str("func", "localCatalogRepository.DeleteItem").
			Str("item_id", id).
			Msg("failed to hard-delete item")
		return err
	}

	return nil
}

func (l *localCatalogRepository) Enqueue(ctx context.Context, entry models.QueueEntry) error {
	log := logger.FromContext(ctx)

	err := l.withTx(ctx, "enqueue", func(tx *sql.Tx) error {
		return l.enqueueTx(ctx, tx, entry)
	})
	if err != nil {
		log.Err(err).
			Str("func", "localCatalogRepository.Enqueue").
			Str("entity_id", entry.EntityID).
			Str("operation", string(entry.OperationType)).
			Msg("failed to enqueue sync intent")
		return err
	}

	return nil
}

func (l *localCatalogRepository) ListQueue(ctx context.Context) ([]models.QueueEntry, error) {
	log := logger.FromContext(ctx)

	rows, err := l.DB.QueryContext(ctx, listQueueEntries)
	if err != nil {
		log.Err(err).
			Str("func", "localCatalogRepository.ListQueue").
			Msg("failed to query sync queue")
		return nil, &StorageError{Op: "list queue", Err: err}
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		entry, scanErr := scanQueueEntry(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "localCatalogRepository.ListQueue").
				Msg("failed to scan queue entry row")
			return nil, &StorageError{Op: "list queue", Err: scanErr}
		}
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "localCatalogRepository.ListQueue").
			Msg("error occurred during rows iteration")
		return nil, &StorageError{Op: "list queue", Err: rowsErr}
	}

	return entries, nil
}

func (l *localCatalogRepository) Dequeue(ctx context.Context, entryID int64) error {
	log := logger.FromContext(ctx)

	res, err := l.DB.ExecContext(ctx, deleteQueueByID, entryID)
	if err != nil {
		log.Err(err).
			Str("func", "localCatalogRepository.Dequeue").
			Int64("entry_id", entryID).
			Msg("failed to dequeue entry")
		return &StorageError{Op: "dequeue", Err: err}
	}

	return affectedOrNotFound(res, ErrQueueEntryNotFound)
}

// withTx runs fn inside a transaction and retries the whole transaction once
// when the storage engine fails. Domain errors (not found, validation) are
// returned verbatim and never retried.
func (l *localCatalogRepository) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		lastErr = l.runTx(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if domainError(lastErr) {
			return lastErr
		}
	}

	return &StorageError{Op: op, Err: lastErr}
}

func (l *localCatalogRepository) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (l *localCatalogRepository) enqueueTx(ctx context.Context, tx *sql.Tx, entry models.QueueEntry) error {
	// a newer mutation supersedes the pending entry for the same entity
	if _, err := tx.ExecContext(ctx, deleteQueueByEntity, entry.EntityID); err != nil {
		return fmt.Errorf("supersede queue entry: %w", err)
	}

	snapshot, err := json.Marshal(entry.PayloadSnapshot)
	if err != nil {
		return fmt.Errorf("encode payload snapshot: %w", err)
	}

	if _, err = tx.ExecContext(ctx, insertQueueEntry,
		entry.OperationType,
		entry.EntityID,
		string(snapshot),
		entry.EnqueuedAt,
	); err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}

	return nil
}

func (l *localCatalogRepository) getItemTx(ctx context.Context, tx *sql.Tx, id string) (models.Item, error) {
	item, err := scanItem(tx.QueryRowContext(ctx, getItem, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Item{}, ErrItemNotFound
		}
		return models.Item{}, fmt.Errorf("query item: %w", err)
	}

	return item, nil
}

func (l *localCatalogRepository) getQueueEntryTx(ctx context.Context, tx *sql.Tx, entityID string) (models.QueueEntry, error) {
	entry, err := scanQueueEntry(tx.QueryRowContext(ctx, getQueueByEntity, entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.QueueEntry{}, ErrQueueEntryNotFound
		}
		return models.QueueEntry{}, fmt.Errorf("query queue entry: %w", err)
	}

	return entry, nil
}

func (l *localCatalogRepository) listItemsQuery(ctx context.Context, query, caller string) ([]models.Item, error) {
	log := logger.FromContext(ctx)

	rows, err := l.DB.QueryContext(ctx, query)
	if err != nil {
		log.Err(err).Str("func", caller).Msg("failed to query items")
		return nil, &StorageError{Op: "list items", Err: err}
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, scanErr := scanItem(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", caller).Msg("failed to scan item row")
			return nil, &StorageError{Op: "list items", Err: scanErr}
		}
		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", caller).Msg("error occurred during rows iteration")
		return nil, &StorageError{Op: "list items", Err: rowsErr}
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Image,
		&item.ImageDropped,
		&item.AvailableQuantity,
		&item.IsAvailable,
		&item.SyncStatus,
		&item.Problematic,
		&item.LocalTimestamp,
		&item.UpdatedAt,
	)
	return item, err
}

func scanQueueEntry(row rowScanner) (models.QueueEntry, error) {
	var (
		entry    models.QueueEntry
		snapshot string
	)
	err := row.Scan(
		&entry.ID,
		&entry.OperationType,
		&entry.EntityID,
		&snapshot,
		&entry.EnqueuedAt,
	)
	if err != nil {
		return models.QueueEntry{}, err
	}

	if err = json.Unmarshal([]byte(snapshot), &entry.PayloadSnapshot); err != nil {
		return models.QueueEntry{}, fmt.Errorf("decode payload snapshot: %w", err)
	}

	return entry, nil
}

func affectedOrNotFound(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return &StorageError{Op: "rows affected", Err: err}
	}
	if affected == 0 {
		return notFound
	}

	return nil
}

func applyFields(item *models.Item, fields models.ItemFields) {
	if fields.Name != "" {
		item.Name = fields.Name
	}
	if fields.Description != nil {
		item.Description = *fields.Description
	}
	if fields.Price != nil {
		item.Price = *fields.Price
	}
	if fields.Image != nil {
		item.Image = *fields.Image
		item.ImageDropped = false
	}
	if fields.AvailableQuantity != nil {
		item.AvailableQuantity = *fields.AvailableQuantity
	}
	if fields.IsAvailable != nil {
		item.IsAvailable = *fields.IsAvailable
	}
}
