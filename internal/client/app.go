// Package client assembles the client application: local storage, the remote
// gateway, and the service layer on top of them.
package client

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dishcraft/menusync/internal/adapter"
	"github.com/dishcraft/menusync/internal/config"
	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/service"
	"github.com/dishcraft/menusync/internal/store"
	"github.com/dishcraft/menusync/internal/workers"
)

// App is the fully wired client application.
type App struct {
	// Services exposes the client service layer to the CLI commands.
	Services *service.ClientServices

	logger *logger.Logger
}

// NewApp opens the local store, builds the remote gateway, and wires the
// service layer. The local database is migrated to the current schema as part
// of opening it.
func NewApp(cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	ctx := log.WithContext(context.Background())

	storages, err := store.NewClientStorages(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	gateway, err := adapter.NewHTTPRemoteGateway(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("create remote gateway: %w", err)
	}

	return &App{
		Services: service.NewClientServices(storages.Catalog, gateway, cfg, log),
		logger:   log,
	}, nil
}

// RunAgent runs the client in agent mode: the connectivity monitor and the
// periodic sync job keep draining the mutation queue until a stop signal
// arrives.
func (a *App) RunAgent() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	background := workers.New(a.Services.Monitor, a.Services.SyncJob)
	background.Run()
	defer func() {
		a.Services.SyncJob.Stop()
		a.Services.Monitor.Stop()
	}()

	a.logger.Info().Msg("agent started")
	<-ctx.Done()
	a.logger.Info().Msg("agent shutting down")

	return nil
}
