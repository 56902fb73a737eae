package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medlit/paperclass/internal/api"
	"github.com/medlit/paperclass/internal/config"
	"github.com/medlit/paperclass/internal/logger"
	"github.com/medlit/paperclass/internal/repository"
	"github.com/medlit/paperclass/internal/service"
	"github.com/medlit/paperclass/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(nil)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize job store (memory by default, sqlite/postgres via config)
	store, err := repository.NewJobStore(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize job store")
	}

	// Initialize transient upload storage
	uploads, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize upload storage")
	}
	if s3Store, ok := uploads.(*storage.S3Storage); ok {
		if err := s3Store.EnsureBucket(context.Background()); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure upload bucket")
		}
	}

	// Initialize model service client
	classifier := service.NewModelClient(&service.ModelClientConfig{
		BaseURL:   cfg.Model.BaseURL,
		Timeout:   cfg.Model.Timeout(),
		MaxLength: cfg.Model.MaxLength,
	})

	// Initialize pipeline service
	pipeline := service.NewPipelineService(store, uploads, classifier, appLogger,
		&service.PipelineConfig{
			BatchSize:      cfg.Classify.BatchSize,
			Threshold:      cfg.Classify.Threshold,
			MaxUploadBytes: cfg.Upload.MaxSizeBytes(),
		})

	// Setup router
	router := api.SetupRouter(pipeline, store, classifier, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
