package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/steam-digest/internal/config"
	"github.com/steam-digest/internal/discord"
	"github.com/steam-digest/internal/handler"
	"github.com/steam-digest/internal/kafka"
	"github.com/steam-digest/internal/postgres"
	"github.com/steam-digest/internal/service"
	"github.com/steam-digest/internal/snapshot"
	"github.com/steam-digest/internal/steam"
	"github.com/steam-digest/internal/summarize"
	"github.com/steam-digest/internal/websocket"
	"github.com/steam-digest/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config file", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize snapshot store
	var store snapshot.Store
	switch cfg.Snapshot.Backend {
	case "redis":
		logger.Info("connecting to Redis", "addr", cfg.Snapshot.Redis.Addr)
		redisStore, err := snapshot.NewRedisStore(&cfg.Snapshot.Redis)
		if err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
	default:
		store = snapshot.NewFileStore(cfg.Snapshot.Path)
	}
	logger.Info("snapshot store initialized", "backend", cfg.Snapshot.Backend)

	// Initialize collaborators
	steamClient := steam.NewClient(&cfg.Steam, logger)
	renderer := summarize.NewGeminiRenderer(&cfg.Gemini, logger)
	webhook := discord.NewWebhook(&cfg.Discord, logger)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize digest service
	digestService := service.NewDigestService(
		steamClient,
		store,
		renderer,
		webhook,
		cfg.Steam.Users,
		logger,
	)
	digestService.SetBroadcaster(wsHub)

	// Initialize optional run archive
	var archive *postgres.Archive
	if cfg.Postgres.Enabled {
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		archive, err = postgres.NewArchive(&cfg.Postgres, logger)
		if err != nil {
			logger.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer archive.Close()

		if err := archive.RunMigrations(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		digestService.SetArchive(archive)
	}

	// Initialize optional activity event publisher
	var publisher *kafka.Publisher
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka publisher", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		publisher, err = kafka.NewPublisher(&cfg.Kafka, logger)
		if err != nil {
			logger.Warn("failed to create Kafka publisher, continuing without Kafka", "error", err)
		} else {
			digestService.SetPublisher(publisher)
			defer publisher.Close()
		}
	}

	// Start digest scheduler
	scheduler := worker.NewScheduler(digestService, &cfg.Schedule, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(digestService, wsHub, archive, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop scheduler
	if err := scheduler.Stop(); err != nil {
		logger.Error("failed to stop scheduler", "error", err)
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
