package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dishcraft/menusync/internal/adapter"
	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/optimizer"
	"github.com/dishcraft/menusync/internal/store"
	"github.com/dishcraft/menusync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is a scripted RemoteGateway spy. upsertFn/deleteFn decide the
// outcome per call; nil functions mean unconditional success.
type fakeGateway struct {
	mu       sync.Mutex
	upserts  []models.Item
	deletes  []string
	upsertFn func(item models.Item) error
	deleteFn func(id string) error
}

func (g *fakeGateway) UpsertItem(_ context.Context, item models.Item) error {
	g.mu.Lock()
	g.upserts = append(g.upserts, item)
	fn := g.upsertFn
	g.mu.Unlock()

	if fn != nil {
		return fn(item)
	}
	return nil
}

func (g *fakeGateway) DeleteItem(_ context.Context, id string) error {
	g.mu.Lock()
	g.deletes = append(g.deletes, id)
	fn := g.deleteFn
	g.mu.Unlock()

	if fn != nil {
		return fn(id)
	}
	return nil
}

func (g *fakeGateway) ListItems(_ context.Context) ([]models.Item, error) { return nil, nil }
func (g *fakeGateway) Health(_ context.Context) error                     { return nil }

func (g *fakeGateway) upsertCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.upserts)
}

func (g *fakeGateway) deleteCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.deletes)
}

func (g *fakeGateway) lastUpsert() models.Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.upserts[len(g.upserts)-1]
}

func newTestLocalStore(t *testing.T) store.LocalStore {
	t.Helper()

	l := logger.Nop()
	db, err := store.NewConnectSQLite(context.Background(), ":memory:", l)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return store.NewLocalCatalogRepository(db, l)
}

func newTestEngine(t *testing.T, gw *fakeGateway, maxAttempts int) (*syncEngine, store.LocalStore) {
	t.Helper()

	localStore := newTestLocalStore(t)
	opt := optimizer.NewOptimizer(1<<20, logger.Nop())
	eng := NewSyncEngine(localStore, gw, opt, maxAttempts, logger.Nop()).(*syncEngine)
	return eng, localStore
}

func mustCreate(t *testing.T, s store.LocalStore, name string) models.Item {
	t.Helper()

	item, err := s.UpsertItem(context.Background(), models.ItemFields{Name: name})
	require.NoError(t, err)
	return item
}

// advanceClock shifts the engine's notion of now, so backoff windows elapse
// without sleeping.
func advanceClock(eng *syncEngine, d time.Duration) {
	base := time.Now().UTC().Add(d)
	eng.now = func() time.Time { return base }
}

func errNetwork() error {
	return adapter.ErrNetwork
}

func TestSyncNow_EmptyQueueDoesNothing(t *testing.T) {
	gw := &fakeGateway{}
	eng, _ := newTestEngine(t, gw, 3)

	require.NoError(t, eng.SyncNow(context.Background()))
	assert.Zero(t, gw.upsertCount())
	assert.Zero(t, gw.deleteCount())
}

func TestSyncNow_PushesCreateAndMarksSynced(t *testing.T) {
	gw := &fakeGateway{}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Margherita")

	require.NoError(t, eng.SyncNow(ctx))

	assert.Equal(t, 1, gw.upsertCount())
	assert.Equal(t, item.ID, gw.lastUpsert().ID)

	stored, err := localStore.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, stored.SyncStatus)

	entries, err := localStore.ListQueue(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSyncNow_OfflineKeepsItemPendingWithBackoff(t *testing.T) {
	gw := &fakeGateway{upsertFn: func(models.Item) error { return errNetwork() }}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Carbonara")

	require.NoError(t, eng.SyncNow(ctx))
	assert.Equal(t, 1, gw.upsertCount())

	stored, err := localStore.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, stored.SyncStatus)
	assert.False(t, stored.Problematic)

	entries, err := localStore.ListQueue(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "a failed push must stay queued")

	// backoff window has not elapsed: the next pass must skip the item
	require.NoError(t, eng.SyncNow(ctx))
	assert.Equal(t, 1, gw.upsertCount())

	// after the window the item is retried
	advanceClock(eng, 6*time.Second)
	require.NoError(t, eng.SyncNow(ctx))
	assert.Equal(t, 2, gw.upsertCount())
}

func TestSyncNow_ExhaustedAttemptsMarkProblematic(t *testing.T) {
	gw := &fakeGateway{upsertFn: func(models.Item) error { return errNetwork() }}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Ravioli")

	for i := 0; i < 3; i++ {
		require.NoError(t, eng.SyncNow(ctx))
		advanceClock(eng, time.Duration(i+1)*time.Minute)
	}
	assert.Equal(t, 3, gw.upsertCount())

	stored, err := localStore.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, stored.Problematic)
	assert.Equal(t, models.SyncStateProblematic, stored.State())

	// problematic items are not retried automatically
	require.NoError(t, eng.SyncNow(ctx))
	assert.Equal(t, 3, gw.upsertCount())

	entries, err := localStore.ListQueue(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "problematic items stay queued awaiting a user edit")
}

func TestSyncNow_EditRevivesProblematicItem(t *testing.T) {
	gw := &fakeGateway{upsertFn: func(models.Item) error { return errNetwork() }}
	eng, localStore := newTestEngine(t, gw, 1)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Pesto")

	require.NoError(t, eng.SyncNow(ctx))
	stored, err := localStore.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, stored.Problematic)

	// the user edit clears the flag and the failure history
	_, err = localStore.UpsertItem(ctx, models.ItemFields{ID: item.ID, Name: "Pesto Genovese"})
	require.NoError(t, err)
	eng.ResetAttempts(item.ID)

	gw.mu.Lock()
	gw.upsertFn = nil // back online
	gw.mu.Unlock()

	require.NoError(t, eng.SyncNow(ctx))

	stored, err = localStore.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, stored.SyncStatus)
	assert.False(t, stored.Problematic)
	assert.Equal(t, "Pesto Genovese", gw.lastUpsert().Name)
}

func TestSyncNow_RemoteCeilingEscalatesLadderWithoutBurningRetries(t *testing.T) {
	// the remote rejects anything carrying an image, regardless of size
	gw := &fakeGateway{upsertFn: func(item models.Item) error {
		if item.Image != "" {
			return adapter.ErrPayloadTooLarge
		}
		return nil
	}}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	_, err := localStore.UpsertItem(ctx, models.ItemFields{
		Name:  "Quattro Formaggi",
		Image: stringPtr("aGVsbG8gd29ybGQ="),
	})
	require.NoError(t, err)

	require.NoError(t, eng.SyncNow(ctx))

	// first try with image, then escalated within the same pass
	require.GreaterOrEqual(t, gw.upsertCount(), 2)
	final := gw.lastUpsert()
	assert.Empty(t, final.Image)
	assert.True(t, final.ImageDropped)

	items, err := localStore.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.SyncStatusSynced, items[0].SyncStatus)
	assert.False(t, items[0].Problematic, "ladder escalation must not burn retry attempts")
}

func TestSyncNow_UnshrinkablePayloadMarksProblematic(t *testing.T) {
	gw := &fakeGateway{upsertFn: func(models.Item) error { return adapter.ErrPayloadTooLarge }}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Degustazione")

	require.NoError(t, eng.SyncNow(ctx))

	stored, err := localStore.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, stored.Problematic)
}

func TestSyncNow_ValidationRejectionMarksProblematicImmediately(t *testing.T) {
	gw := &fakeGateway{upsertFn: func(models.Item) error { return adapter.ErrValidation }}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Zuppa")

	require.NoError(t, eng.SyncNow(ctx))
	assert.Equal(t, 1, gw.upsertCount(), "a rejected payload is not retried")

	stored, err := localStore.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, stored.Problematic)
}

func TestSyncNow_DeleteConfirmedRemovesLocally(t *testing.T) {
	gw := &fakeGateway{}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Frittata")
	require.NoError(t, eng.SyncNow(ctx)) // acknowledge the create

	removed, err := localStore.MarkForDeletion(ctx, item.ID)
	require.NoError(t, err)
	require.False(t, removed)

	require.NoError(t, eng.SyncNow(ctx))

	assert.Equal(t, 1, gw.deleteCount())
	_, err = localStore.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	entries, err := localStore.ListQueue(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSyncNow_DeleteOfflineKeepsItemHidden(t *testing.T) {
	gw := &fakeGateway{deleteFn: func(string) error { return errNetwork() }}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Caprese")
	require.NoError(t, eng.SyncNow(ctx))

	_, err := localStore.MarkForDeletion(ctx, item.ID)
	require.NoError(t, err)

	require.NoError(t, eng.SyncNow(ctx))

	stored, err := localStore.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPendingDeletion, stored.SyncStatus)
	assert.True(t, stored.Hidden())

	visible, err := localStore.ListVisibleItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, visible)

	entries, err := localStore.ListQueue(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the delete intent survives the failed pass")
}

func TestSyncNow_ConcurrentPassesCoalesce(t *testing.T) {
	gw := &fakeGateway{}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	mustCreate(t, localStore, "Arancini")

	// a pass is already in flight; the trigger must return without work
	eng.inFlight.Store(true)
	require.NoError(t, eng.SyncNow(ctx))
	assert.Zero(t, gw.upsertCount())

	eng.inFlight.Store(false)
	require.NoError(t, eng.SyncNow(ctx))
	assert.Equal(t, 1, gw.upsertCount())
}

func TestSyncNow_FailureDoesNotStallQueue(t *testing.T) {
	// the first item always fails; the second succeeds
	var firstID string
	gw := &fakeGateway{}
	gw.upsertFn = func(item models.Item) error {
		if item.ID == firstID {
			return errNetwork()
		}
		return nil
	}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	first := mustCreate(t, localStore, "Primo")
	firstID = first.ID
	second := mustCreate(t, localStore, "Secondo")

	require.NoError(t, eng.SyncNow(ctx))

	assert.Equal(t, 2, gw.upsertCount(), "a failing item must not block later entries")

	storedFirst, err := localStore.GetItem(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, storedFirst.SyncStatus)

	storedSecond, err := localStore.GetItem(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, storedSecond.SyncStatus)
}

func TestSyncNow_SelfHealsLostQueueEntries(t *testing.T) {
	gw := &fakeGateway{}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Stracciatella")

	// simulate a lost queue row
	entries, err := localStore.ListQueue(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, localStore.Dequeue(ctx, entries[0].ID))

	require.NoError(t, eng.SyncNow(ctx))

	assert.Equal(t, 1, gw.upsertCount())
	stored, err := localStore.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, stored.SyncStatus)
}

func TestSyncNow_SendsLatestStateNotSnapshot(t *testing.T) {
	gw := &fakeGateway{}
	eng, localStore := newTestEngine(t, gw, 3)
	ctx := context.Background()

	item := mustCreate(t, localStore, "Old Name")
	_, err := localStore.UpsertItem(ctx, models.ItemFields{ID: item.ID, Name: "New Name"})
	require.NoError(t, err)

	require.NoError(t, eng.SyncNow(ctx))

	require.Equal(t, 1, gw.upsertCount())
	assert.Equal(t, "New Name", gw.lastUpsert().Name)
}

func stringPtr(v string) *string { return &v }
