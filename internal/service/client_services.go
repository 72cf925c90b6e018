package service

import (
	"github.com/dishcraft/menusync/internal/adapter"
	"github.com/dishcraft/menusync/internal/config"
	"github.com/dishcraft/menusync/internal/connectivity"
	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/optimizer"
	"github.com/dishcraft/menusync/internal/store"
)

// ClientServices wires the client-side service layer: the catalog facade the
// CLI talks to, the sync engine draining the mutation queue, the connectivity
// monitor, and the background job tying them together.
type ClientServices struct {
	CatalogService CatalogService
	SyncService    SyncService
	SyncJob        SyncJob
	Monitor        *connectivity.Monitor
}

// NewClientServices assembles the client services on top of the local store
// and the remote gateway.
func NewClientServices(localStore store.LocalStore, gateway adapter.RemoteGateway, cfg *config.ClientConfig, log *logger.Logger) *ClientServices {
	opt := optimizer.NewOptimizer(cfg.Sync.PayloadBudgetBytes, log)
	syncSvc := NewSyncEngine(localStore, gateway, opt, cfg.Sync.MaxAttempts, log)
	monitor := connectivity.NewMonitor(gateway, cfg.Sync.ProbeInterval, cfg.Sync.ProbeTimeout, log)

	return &ClientServices{
		CatalogService: NewCatalogService(localStore, syncSvc, log),
		SyncService:    syncSvc,
		SyncJob:        NewSyncJob(syncSvc, monitor, cfg.Sync.Interval, log),
		Monitor:        monitor,
	}
}
