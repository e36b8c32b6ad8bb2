package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/FeedStatus/internal/application"
	"github.com/JonMunkholm/FeedStatus/internal/config"
	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage_backend", cfg.Storage.Backend,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"inbox_enabled", cfg.Inbox.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	for _, ds := range core.Datasets() {
		slog.Debug("dataset registered", "dataset", ds.Key, "label", ds.Label)
	}

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
	if runErr != nil {
		slog.Error("server stopped", "error", runErr)
		os.Exit(1)
	}
}
