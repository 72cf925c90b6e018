package main

import (
	"context"
	"fmt"

	"github.com/dishcraft/menusync/internal/config"
	myHTTP "github.com/dishcraft/menusync/internal/handler/http"
	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/internal/server"
	"github.com/dishcraft/menusync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("menusync-server")
	cfg, err := config.GetServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx := log.WithContext(context.Background())
	storages, err := store.NewStorages(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	handler := myHTTP.NewHandler(storages.Menu, cfg.MaxPayloadBytes, log)

	srv := server.NewServer(handler, cfg, log)
	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
