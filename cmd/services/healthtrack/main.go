package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/ingest"
	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/queue"
	"github.com/soltixdb/healthtrack/internal/router"
	"github.com/soltixdb/healthtrack/internal/store"
	"github.com/soltixdb/healthtrack/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("HealthTrack service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Open reading store
	logger.Info("Opening reading store", "type", cfg.Storage.Type)
	readingStore, err := store.New(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open reading store", "error", err)
	}
	defer func() { _ = readingStore.Close() }()

	// Connect to Queue (configurable backend)
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	queueClient, err := queue.NewQueue(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = queueClient.Close() }()
	logger.Info("Queue connection established")

	// Start ingest consumer (queue -> store)
	consumer, err := ingest.NewConsumer(queueClient, readingStore, cfg.Queue.SubjectPrefix, logger)
	if err != nil {
		logger.Fatal("Failed to create ingest consumer", "error", err)
	}
	if err := consumer.Start(); err != nil {
		logger.Fatal("Failed to start ingest consumer", "error", err)
	}

	// Initialize router
	app := router.New(logger, queueClient, readingStore, *cfg)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	consumer.Stop()
	stats := consumer.Stats()
	logger.Info("Server exited",
		"stored", stats.Stored, "rejected", stats.Rejected, "failed", stats.Failed)
}
