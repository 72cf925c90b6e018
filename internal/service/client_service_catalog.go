package service

import (
	"context"

	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/store"
	"github.com/dishcraft/menusync/models"
)

type catalogService struct {
	store  store.LocalStore
	sync   SyncService
	logger *logger.Logger
}

// NewCatalogService constructs the [CatalogService] backed by the local store.
// Every successful mutation nudges the sync engine in the background; the
// caller never waits for the network.
func NewCatalogService(localStore store.LocalStore, syncService SyncService, logger *logger.Logger) CatalogService {
	return &catalogService{
		store:  localStore,
		sync:   syncService,
		logger: logger,
	}
}

// CreateOrUpdate implements [CatalogService].
func (c *catalogService) CreateOrUpdate(ctx context.Context, fields models.ItemFields) (models.Item, error) {
	if fields.AvailableQuantity != nil && *fields.AvailableQuantity < 0 {
		return models.Item{}, ErrNegativeQuantity
	}

	item, err := c.store.UpsertItem(ctx, fields)
	if err != nil {
		return models.Item{}, err
	}

	// the edit voids any failure history: retry fresh, immediately
	c.sync.ResetAttempts(item.ID)
	c.triggerSync()

	return item, nil
}

// Remove implements [CatalogService].
func (c *catalogService) Remove(ctx context.Context, id string) (bool, error) {
	removed, err := c.store.MarkForDeletion(ctx, id)
	if err != nil {
		return false, err
	}

	if !removed {
		c.sync.ResetAttempts(id)
		c.triggerSync()
	}

	return removed, nil
}

// Get implements [CatalogService].
func (c *catalogService) Get(ctx context.Context, id string) (models.Item, error) {
	return c.store.GetItem(ctx, id)
}

// SyncState implements [CatalogService].
func (c *catalogService) SyncState(ctx context.Context, id string) (models.SyncState, error) {
	item, err := c.store.GetItem(ctx, id)
	if err != nil {
		return "", err
	}
	return item.State(), nil
}

// List implements [CatalogService].
func (c *catalogService) List(ctx context.Context) ([]models.Item, error) {
	return c.store.ListVisibleItems(ctx)
}

// ListAll implements [CatalogService].
func (c *catalogService) ListAll(ctx context.Context) ([]models.Item, error) {
	return c.store.ListItems(ctx)
}

// triggerSync starts a background pass detached from the caller's context:
// the mutation is already durable, so the push must not die with the request.
func (c *catalogService) triggerSync() {
	go func() {
		ctx := c.logger.WithContext(context.Background())
		if err := c.sync.SyncNow(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("background sync pass failed")
		}
	}()
}
