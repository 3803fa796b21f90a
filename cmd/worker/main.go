package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lorekeep/motif-engine/internal/config"
	"github.com/lorekeep/motif-engine/internal/engine"
	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/internal/logger"
	"github.com/lorekeep/motif-engine/internal/storage"
)

// The worker runs the lifecycle loop: advancing motifs through their
// phases on a schedule, applying effects, and keeping the global and
// regional invariants reconciled. It shares storage with the API but
// holds no HTTP surface of its own.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Motif Engine Worker",
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"lifecycle_interval", cfg.Tuning.LifecycleInterval)

	var repo storage.Repository
	var redisRepo *storage.RedisRepository
	switch cfg.StorageBackend {
	case "sqlite":
		sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLitePath, log)
		if err != nil {
			log.Error("Failed to open SQLite storage", "error", err, "path", cfg.SQLitePath)
			os.Exit(1)
		}
		repo = sqliteRepo
	default:
		redisRepo = storage.NewRedisRepository(cfg.RedisURL, log)
		repo = redisRepo
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := repo.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus(256, log)
	if redisRepo != nil {
		broadcaster := events.NewBroadcaster(redisRepo.Client(), log)
		bus.Subscribe(broadcaster.Handler())
	}
	go bus.Run(ctx)

	manager := engine.NewManager(repo, bus, cfg.Tuning, nil, log)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- manager.Run(ctx)
	}()

	log.Info("Worker started, lifecycle loop running")

	select {
	case <-quit:
		log.Info("Worker shutdown signal received")
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Lifecycle loop failed", "error", err)
			os.Exit(1)
		}
	}

	if err := repo.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Worker exited")
}
