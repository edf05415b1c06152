package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/therobotcowboy/inventory-manager/internal/config"
	"github.com/therobotcowboy/inventory-manager/internal/db"
	"github.com/therobotcowboy/inventory-manager/internal/logging"
	"github.com/therobotcowboy/inventory-manager/internal/remote"
	"github.com/therobotcowboy/inventory-manager/internal/store"
	syncengine "github.com/therobotcowboy/inventory-manager/internal/sync"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if cfg.RemoteURL == "" {
		logger.Error("REMOTE_URL is required")
		return
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	itemStore := store.NewItemStore(database)
	locationStore := store.NewLocationStore(database)
	outboxStore := store.NewOutboxStore(database)

	client := remote.NewClient(cfg.RemoteURL, cfg.RemoteAPIKey)
	engine := syncengine.NewEngine(outboxStore, itemStore, locationStore, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("sync engine started", "db", cfg.DBPath, "remote", cfg.RemoteURL, "interval", cfg.SyncInterval)
	engine.Run(ctx, cfg.SyncInterval, nil)
	logger.Info("sync engine stopped")
}
