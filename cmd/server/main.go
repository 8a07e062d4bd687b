// Package main is the entry point for the pricer HTTP service.
// It prices vintage clothing by combining recent market sales with an
// optional AI estimate and serves the result over a JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vintagescan/pricer/internal/config"
	"github.com/vintagescan/pricer/internal/di"
	"github.com/vintagescan/pricer/internal/server"
	"github.com/vintagescan/pricer/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Loads configuration from environment variables (.env file supported)
// 2. Initializes logging with an in-memory buffer for /api/logs/recent
// 3. Wires all dependencies via the DI container
// 4. Starts the scheduler (daily cache cleanup)
// 5. Starts the HTTP server
// 6. Waits for a shutdown signal and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	buffer := logger.NewRingBuffer(cfg.LogBufferSize)
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
		Buffer: buffer,
	})

	log.Info().
		Str("database", cfg.DatabaseDriver).
		Str("data_dir", cfg.DataDir).
		Msg("Starting pricer")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close databases")
		}
	}()

	// Expired rows from a previous run are cleared once before serving.
	if err := container.Scheduler.RunNow(jobs.CacheCleanup); err != nil {
		log.Warn().Err(err).Msg("Initial cache cleanup failed")
	}
	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
		LogBuffer: buffer,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop scheduler first so no cleanup starts mid-shutdown
	container.Scheduler.Stop()

	// In-flight requests get up to 10 seconds to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
