package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"betterresume/internal/api/routes"
	"betterresume/internal/background"
	"betterresume/internal/cache"
	"betterresume/internal/config"
	"betterresume/internal/download"
	"betterresume/internal/ingest"
	"betterresume/internal/llm"
	"betterresume/internal/logging"
	"betterresume/internal/profile"
	"betterresume/internal/records"
	"betterresume/internal/tailor"
	"betterresume/internal/vectorstore"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging system
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting BetterResume Generator", map[string]interface{}{
		"provider": cfg.LLM.Provider,
	})

	ctx := context.Background()

	// Initialize LLM manager
	llmManager := llm.NewManager(cfg)
	if err := llmManager.Start(ctx); err != nil {
		logger.Fatal("Failed to start LLM manager", map[string]interface{}{"error": err.Error()})
	}

	// Initialize stores
	recordStore, err := records.NewStore(cfg.Cache.RecordsPath)
	if err != nil {
		logger.Fatal("Failed to open record store", map[string]interface{}{"error": err.Error()})
	}

	vectorStore, err := vectorstore.NewStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open vector store", map[string]interface{}{"error": err.Error()})
	}

	profileStore, err := profile.NewStore(cfg.Cache.ProfileDir)
	if err != nil {
		logger.Fatal("Failed to open profile picture store", map[string]interface{}{"error": err.Error()})
	}

	resumeCache := cache.New(cfg)
	signer := download.NewSigner(cfg)
	ingestService := ingest.NewService(recordStore, vectorStore)

	// Initialize background task manager
	logger.Info("Initializing background task manager", map[string]interface{}{})
	var taskManager *background.TaskManagerImpl
	if cfg.Redis.Enabled {
		redisStore, err := background.NewRedisTaskStore(cfg)
		if err != nil {
			logger.Fatal("Failed to create Redis task store", map[string]interface{}{"error": err.Error()})
		}
		if err := redisStore.Ping(ctx); err != nil {
			logger.Fatal("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		taskManager = background.NewTaskManagerWithStore(cfg, redisStore)
	} else {
		taskManager = background.NewTaskManager(cfg)
	}
	if err := taskManager.Start(ctx); err != nil {
		logger.Fatal("Failed to start task manager", map[string]interface{}{"error": err.Error()})
	}

	tailorService := tailor.NewService(cfg, llmManager, vectorStore, recordStore, resumeCache, profileStore, signer, taskManager)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	routes.SetupRoutes(e, routes.Dependencies{
		Config:      cfg,
		LLMManager:  llmManager,
		TaskManager: taskManager,
		Tailor:      tailorService,
		Ingest:      ingestService,
		Records:     recordStore,
		Profiles:    profileStore,
		Cache:       resumeCache,
		Signer:      signer,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...", map[string]interface{}{})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Stopping background task manager...", map[string]interface{}{})
		if err := taskManager.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping task manager", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Stopping LLM manager...", map[string]interface{}{})
		if err := llmManager.Stop(); err != nil {
			logger.Error("Error stopping LLM manager", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Stopping HTTP server...", map[string]interface{}{})
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Server shutdown complete", map[string]interface{}{})
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{"address": address})

	if err := e.Start(address); err != nil {
		logger.Error("Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
