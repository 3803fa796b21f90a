package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lorekeep/motif-engine/internal/config"
	"github.com/lorekeep/motif-engine/internal/engine"
	"github.com/lorekeep/motif-engine/internal/events"
	"github.com/lorekeep/motif-engine/internal/handlers"
	"github.com/lorekeep/motif-engine/internal/logger"
	"github.com/lorekeep/motif-engine/internal/middleware"
	"github.com/lorekeep/motif-engine/internal/services"
	"github.com/lorekeep/motif-engine/internal/storage"
	"github.com/lorekeep/motif-engine/pkg/textfilter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Motif Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"llm_provider", cfg.LLMProvider)

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Error("OpenAI API key is required when using openai provider")
			os.Exit(1)
		}
		llmService = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIURL)
		log.Info("Using OpenAI LLM provider", "model", cfg.OpenAIModel)
	case "ollama":
		llmService = services.NewOllamaService(cfg.OllamaURL, cfg.OpenAIModel, log)
		log.Info("Using Ollama LLM provider", "model", cfg.OpenAIModel)
	case "none":
		llmService = services.NewMockLLM()
		log.Warn("No LLM provider configured, narration will use neutral fallback text")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"openai", "ollama", "none"})
		os.Exit(1)
	}

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

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(repo, log)
	mux.Handle("/health", healthHandler)

	motifHandler := handlers.NewMotifHandler(manager, log)
	mux.Handle("/v1/motifs", motifHandler)
	mux.Handle("/v1/motifs/", motifHandler)

	locationHandler := handlers.NewLocationHandler(manager, log)
	mux.Handle("/v1/locations/", locationHandler)

	var filter *textfilter.Filter
	if textfilter.ShouldFilter(cfg.ContentRating) {
		filter = textfilter.New()
		log.Info("Profanity filtering enabled", "rating", cfg.ContentRating)
	}
	contextHandler := handlers.NewContextHandler(manager, llmService, filter, log)
	mux.Handle("/v1/context", contextHandler)
	mux.Handle("/v1/context/", contextHandler)
	mux.Handle("/v1/narrate", contextHandler)

	sequenceHandler := handlers.NewSequenceHandler(manager, log)
	mux.Handle("/v1/sequences", sequenceHandler)
	mux.Handle("/v1/sequences/", sequenceHandler)

	chaosHandler := handlers.NewChaosHandler(manager, log)
	mux.Handle("/v1/chaos/", chaosHandler)

	worldEventHandler := handlers.NewWorldEventHandler(manager, log)
	mux.Handle("/v1/events", worldEventHandler)

	regionHandler := handlers.NewRegionHandler(manager, log)
	mux.Handle("/v1/regions", regionHandler)
	mux.Handle("/v1/regions/", regionHandler)
	mux.Handle("/v1/lifecycle/tick", regionHandler)

	handler := middleware.Recover(log, middleware.Logger(log, mux))
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Stop the event bus before storage goes away.
	cancel()

	if err := repo.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
