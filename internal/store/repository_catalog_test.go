package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/models"
)

func newTestCatalogRepo(t *testing.T) LocalStore {
	t.Helper()

	l := logger.Nop()
	db, err := NewConnectSQLite(context.Background(), ":memory:", l)
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err = db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return NewLocalCatalogRepository(db, l)
}

func createItem(t *testing.T, repo LocalStore, name string) models.Item {
	t.Helper()

	item, err := repo.UpsertItem(context.Background(), models.ItemFields{Name: name})
	if err != nil {
		t.Fatalf("failed to create item %q: %v", name, err)
	}
	return item
}

func float64Ptr(v float64) *float64 { return &v }
func stringPtr(v string) *string    { return &v }
func intPtr(v int) *int             { return &v }
func boolPtr(v bool) *bool          { return &v }

func TestUpsertItem_CreateAssignsDefaults(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item, err := repo.UpsertItem(ctx, models.ItemFields{Name: "Margherita"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if item.ID == "" {
		t.Error("expected a generated id")
	}
	if item.Price != 0 {
		t.Errorf("expected default price 0, got %v", item.Price)
	}
	if item.AvailableQuantity != 0 {
		t.Errorf("expected default quantity 0, got %d", item.AvailableQuantity)
	}
	if !item.IsAvailable {
		t.Error("expected new item to be available by default")
	}
	if item.SyncStatus != models.SyncStatusPending {
		t.Errorf("expected status pending, got %s", item.SyncStatus)
	}

	entries, err := repo.ListQueue(ctx)
	if err != nil {
		t.Fatalf("unexpected error listing queue: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 queue entry, got %d", len(entries))
	}
	if entries[0].OperationType != models.OperationCreate {
		t.Errorf("expected create entry, got %s", entries[0].OperationType)
	}
	if entries[0].EntityID != item.ID {
		t.Errorf("expected entity id %s, got %s", item.ID, entries[0].EntityID)
	}
}

func TestUpsertItem_CreateRequiresName(t *testing.T) {
	repo := newTestCatalogRepo(t)

	_, err := repo.UpsertItem(context.Background(), models.ItemFields{Name: "   "})
	if !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestUpsertItem_NegativePrice(t *testing.T) {
	repo := newTestCatalogRepo(t)

	_, err := repo.UpsertItem(context.Background(), models.ItemFields{
		Name:  "Calzone",
		Price: float64Ptr(-1),
	})
	if !errors.Is(err, ErrNegativePrice) {
		t.Fatalf("expected ErrNegativePrice, got %v", err)
	}
}

func TestUpsertItem_UpdateMissingItem(t *testing.T) {
	repo := newTestCatalogRepo(t)

	_, err := repo.UpsertItem(context.Background(), models.ItemFields{ID: "no-such-id", Name: "Ghost"})
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestUpsertItem_UpdateSupersedesQueueEntry(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item := createItem(t, repo, "Carbonara")

	updated, err := repo.UpsertItem(ctx, models.ItemFields{
		ID:    item.ID,
		Name:  "Carbonara Deluxe",
		Price: float64Ptr(12.50),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Carbonara Deluxe" {
		t.Errorf("expected updated name, got %q", updated.Name)
	}
	if updated.Price != 12.50 {
		t.Errorf("expected updated price, got %v", updated.Price)
	}

	entries, err := repo.ListQueue(ctx)
	if err != nil {
		t.Fatalf("unexpected error listing queue: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the update to supersede the pending entry, got %d entries", len(entries))
	}
	// the item was never acknowledged remotely, so create semantics survive
	if entries[0].OperationType != models.OperationCreate {
		t.Errorf("expected create entry, got %s", entries[0].OperationType)
	}
	if entries[0].PayloadSnapshot.Name != "Carbonara Deluxe" {
		t.Errorf("expected snapshot with latest name, got %q", entries[0].PayloadSnapshot.Name)
	}
}

func TestUpsertItem_UpdateAfterSyncedEnqueuesUpdate(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item := createItem(t, repo, "Tiramisu")

	entries, _ := repo.ListQueue(ctx)
	if err := repo.Dequeue(ctx, entries[0].ID); err != nil {
		t.Fatalf("unexpected error dequeuing: %v", err)
	}
	if err := repo.MarkSynced(ctx, item.ID); err != nil {
		t.Fatalf("unexpected error marking synced: %v", err)
	}

	updated, err := repo.UpsertItem(ctx, models.ItemFields{
		ID:                item.ID,
		AvailableQuantity: intPtr(5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.SyncStatus != models.SyncStatusPending {
		t.Errorf("expected status back to pending, got %s", updated.SyncStatus)
	}
	if updated.AvailableQuantity != 5 {
		t.Errorf("expected quantity 5, got %d", updated.AvailableQuantity)
	}

	entries, err = repo.ListQueue(ctx)
	if err != nil {
		t.Fatalf("unexpected error listing queue: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 queue entry, got %d", len(entries))
	}
	if entries[0].OperationType != models.OperationUpdate {
		t.Errorf("expected update entry after acknowledgement, got %s", entries[0].OperationType)
	}
}

func TestUpsertItem_NewImageClearsDroppedFlag(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item := createItem(t, repo, "Focaccia")
	if err := repo.MarkSynced(ctx, item.ID); err != nil {
		t.Fatalf("unexpected error marking synced: %v", err)
	}

	updated, err := repo.UpsertItem(ctx, models.ItemFields{
		ID:    item.ID,
		Image: stringPtr("aGVsbG8="),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Image != "aGVsbG8=" {
		t.Errorf("expected image to be stored, got %q", updated.Image)
	}
	if updated.ImageDropped {
		t.Error("expected image_dropped to be cleared when a new image arrives")
	}
}

func TestMarkForDeletion_NeverSyncedItemIsRemovedLocally(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item := createItem(t, repo, "Bruschetta")

	removed, err := repo.MarkForDeletion(ctx, item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !removed {
		t.Fatal("expected a never-synced item to be hard-removed")
	}

	if _, err = repo.GetItem(ctx, item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound after removal, got %v", err)
	}

	entries, err := repo.ListQueue(ctx)
	if err != nil {
		t.Fatalf("unexpected error listing queue: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty queue, got %d entries", len(entries))
	}
}

func TestMarkForDeletion_SyncedItemIsHiddenAndQueued(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item := createItem(t, repo, "Lasagna")
	entries, _ := repo.ListQueue(ctx)
	if err := repo.Dequeue(ctx, entries[0].ID); err != nil {
		t.Fatalf("unexpected error dequeuing: %v", err)
	}
	if err := repo.MarkSynced(ctx, item.ID); err != nil {
		t.Fatalf("unexpected error marking synced: %v", err)
	}

	removed, err := repo.MarkForDeletion(ctx, item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed {
		t.Fatal("expected a synced item to stay until the remote confirms deletion")
	}

	stored, err := repo.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.SyncStatus != models.SyncStatusPendingDeletion {
		t.Errorf("expected status pending_deletion, got %s", stored.SyncStatus)
	}
	if stored.IsAvailable {
		t.Error("expected is_available to be cleared with the status change")
	}
	if !stored.Hidden() {
		t.Error("expected the item to be hidden from visible listings")
	}

	entries, err = repo.ListQueue(ctx)
	if err != nil {
		t.Fatalf("unexpected error listing queue: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 queue entry, got %d", len(entries))
	}
	if entries[0].OperationType != models.OperationDelete {
		t.Errorf("expected delete entry, got %s", entries[0].OperationType)
	}

	visible, err := repo.ListVisibleItems(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range visible {
		if v.ID == item.ID {
			t.Error("expected item pending deletion to be excluded from visible listings")
		}
	}

	all, err := repo.ListItems(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, v := range all {
		if v.ID == item.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected item pending deletion to remain in the full listing")
	}
}

func TestMarkSynced_TransitionsPendingOnly(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item := createItem(t, repo, "Gnocchi")
	if err := repo.SetProblematic(ctx, item.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.MarkSynced(ctx, item.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := repo.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.SyncStatus != models.SyncStatusSynced {
		t.Errorf("expected status synced, got %s", stored.SyncStatus)
	}
	if stored.Problematic {
		t.Error("expected problematic flag to be cleared on successful sync")
	}

	// an item no longer pending is left untouched
	other := createItem(t, repo, "Risotto")
	if _, err = repo.MarkForDeletion(ctx, other.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// other was never synced, so it is gone entirely; MarkSynced must not fail
	if err = repo.MarkSynced(ctx, other.ID); err != nil {
		t.Fatalf("expected no error for a vanished item, got %v", err)
	}
}

func TestSetProblematic_MissingItem(t *testing.T) {
	repo := newTestCatalogRepo(t)

	err := repo.SetProblematic(context.Background(), "no-such-id", true)
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestMarkStatus_PendingDeletionClearsAvailability(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item, err := repo.UpsertItem(ctx, models.ItemFields{Name: "Polenta", IsAvailable: boolPtr(true)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err = repo.MarkStatus(ctx, item.ID, models.SyncStatusPendingDeletion); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := repo.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.SyncStatus != models.SyncStatusPendingDeletion {
		t.Errorf("expected status pending_deletion, got %s", stored.SyncStatus)
	}
	if stored.IsAvailable {
		t.Error("expected availability cleared atomically with the status")
	}
}

func TestListQueue_FIFOOrder(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	first := createItem(t, repo, "Antipasto")
	second := createItem(t, repo, "Primo")
	third := createItem(t, repo, "Dolce")

	entries, err := repo.ListQueue(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	wantOrder := []string{first.ID, second.ID, third.ID}
	for i, entry := range entries {
		if entry.EntityID != wantOrder[i] {
			t.Errorf("entry %d: expected entity %s, got %s", i, wantOrder[i], entry.EntityID)
		}
	}
}

func TestDequeue_MissingEntry(t *testing.T) {
	repo := newTestCatalogRepo(t)

	err := repo.Dequeue(context.Background(), 12345)
	if !errors.Is(err, ErrQueueEntryNotFound) {
		t.Fatalf("expected ErrQueueEntryNotFound, got %v", err)
	}
}

func TestListUnqueuedPending_FindsOrphanedItems(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item := createItem(t, repo, "Ossobuco")
	synced := createItem(t, repo, "Panettone")

	// simulate a lost queue entry for the still-pending item
	entries, _ := repo.ListQueue(ctx)
	for _, entry := range entries {
		if err := repo.Dequeue(ctx, entry.ID); err != nil {
			t.Fatalf("unexpected error dequeuing: %v", err)
		}
	}
	if err := repo.MarkSynced(ctx, synced.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orphans, err := repo.ListUnqueuedPending(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orphans) != 1 {
		t.Fatalf("expected 1 orphaned pending item, got %d", len(orphans))
	}
	if orphans[0].ID != item.ID {
		t.Errorf("expected orphan %s, got %s", item.ID, orphans[0].ID)
	}
}

func TestDeleteItem_RemovesItemAndQueue(t *testing.T) {
	repo := newTestCatalogRepo(t)
	ctx := context.Background()

	item := createItem(t, repo, "Sorbetto")

	if err := repo.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.GetItem(ctx, item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	entries, err := repo.ListQueue(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty queue, got %d entries", len(entries))
	}
}
