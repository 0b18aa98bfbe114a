package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codyseavey/nextbet/internal/api"
	"github.com/codyseavey/nextbet/internal/config"
	"github.com/codyseavey/nextbet/internal/database"
	"github.com/codyseavey/nextbet/internal/live"
	"github.com/codyseavey/nextbet/internal/services"
	"github.com/codyseavey/nextbet/internal/store"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize database
	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	kv := database.NewKVStore(database.GetDB())

	// Initialize services
	st := store.New()
	thumbnailService := services.NewThumbnailService()
	analyzer := services.NewSimulatedAnalyzer(thumbnailService, cfg.Analysis.Delay)
	imageStorageService := services.NewImageStorageService(cfg.Uploads.ArchiveDir, cfg.Uploads.MaxBytes)
	snapshotService := services.NewSnapshotService(kv)
	sessionProvider := services.NewKVSessionProvider(kv)
	cooldownTicker := services.NewCooldownTicker(st, time.Second)

	controller := services.NewAppController(st, analyzer, imageStorageService, snapshotService, sessionProvider, cooldownTicker)
	hub := live.NewHub()
	controller.SetPublisher(hub)
	controller.Load()

	// Optional scheduled reset of daily goal progress
	var goalScheduler *services.GoalScheduler
	if cfg.Goals.DailyResetCron != "" {
		goalScheduler, err = services.NewGoalScheduler(cfg.Goals.DailyResetCron, func() {
			controller.ResetDailyGoal()
		})
		if err != nil {
			log.Fatalf("Failed to set up goal scheduler: %v", err)
		}
		goalScheduler.Start()
	}

	router := api.SetupRouter(cfg, controller, imageStorageService, hub)

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if goalScheduler != nil {
		goalScheduler.Stop()
	}

	// Live connections are hijacked and not covered by Shutdown
	hub.Close()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop the cooldown countdown after the last request has finished
	controller.Close()

	log.Println("Server exited")
}
