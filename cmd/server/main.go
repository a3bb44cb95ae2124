package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vramcheck/vramcheck/internal/api"
	"github.com/vramcheck/vramcheck/internal/catalog"
	"github.com/vramcheck/vramcheck/internal/config"
	"github.com/vramcheck/vramcheck/internal/estimate"
	"github.com/vramcheck/vramcheck/internal/logging"
	"github.com/vramcheck/vramcheck/internal/metrics"
	"github.com/vramcheck/vramcheck/internal/modelcat"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize logging
	logger := logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logger.Info("starting vramcheck server",
		slog.String("version", "0.1.0"),
		slog.Int("port", cfg.Server.Port))

	// Static tables and the estimator built on them
	cat := catalog.New()
	calc := estimate.New(cat)

	// Model preset registry, optionally extended from manifest files
	presets := modelcat.New(modelcat.WithLogger(logger))
	if dir := cfg.Catalog.ModelManifestDir; dir != "" {
		if err := presets.LoadManifestDir(dir); err != nil {
			logger.Error("failed to load model manifests",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	metrics.SetModelPresets(presets.Count())

	// Initialize API server (not ready yet)
	server := api.New(calc, cat, presets,
		api.WithLogger(logger),
		api.WithHost(cfg.Server.Host),
		api.WithPort(cfg.Server.Port),
		api.WithRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	// Mark server as ready
	server.SetReady(true)

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		// Mark server as not ready to stop accepting new requests
		server.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
	}()

	// Start server
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
