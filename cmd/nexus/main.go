package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/nexa-digital/nexus-chat-go/internal/config"
	"github.com/nexa-digital/nexus-chat-go/internal/handlers"
	"github.com/nexa-digital/nexus-chat-go/internal/i18n"
	"github.com/nexa-digital/nexus-chat-go/internal/middleware"
	"github.com/nexa-digital/nexus-chat-go/internal/services/ai"
	"github.com/nexa-digital/nexus-chat-go/internal/services/cache"
	"github.com/nexa-digital/nexus-chat-go/internal/services/catalog"
	"github.com/nexa-digital/nexus-chat-go/internal/services/chat"
	"github.com/nexa-digital/nexus-chat-go/internal/services/gpt"
	"github.com/nexa-digital/nexus-chat-go/internal/services/storage"
	"github.com/nexa-digital/nexus-chat-go/internal/services/voice"
	"github.com/nexa-digital/nexus-chat-go/pkg/logger"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if exists
	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting Nexus Chat...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize metrics
	metrics := middleware.NewMetrics()

	// Initialize storage
	storageManager, err := storage.NewManager(cfg, metrics, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	// Initialize stores
	builtins := catalog.Default(log)
	gptStore := gpt.NewStore(log)
	chatStore := chat.NewStore(handlers.NewResolver(builtins, gptStore), builtins, log)

	// Initialize backend client
	backend := ai.NewClient(&cfg.Backend, log)

	// Initialize cache
	cacheService := cache.NewCache(cfg, log)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg, log)

	// Initialize i18n
	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Initialize voice collaborator
	voiceController := voice.NewController(cfg.Voice.Speed, cfg.Voice.Volume, log)

	// Wire the session orchestrator and rehydrate persisted state
	orch := handlers.NewOrchestrator(cfg, builtins, gptStore, chatStore, backend, cacheService, storageManager, voiceController, localizer, metrics, log)
	if err := orch.Bootstrap(ctx); err != nil {
		log.WithError(err).Fatal("Failed to rehydrate state")
	}

	// Start metrics server if enabled
	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Start API server
	apiServer := handlers.NewServer(cfg, orch, builtins, gptStore, chatStore, voiceController, localizer, rateLimiter, metrics, log)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("API server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("API server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}

	log.Info("Stopped")
}
