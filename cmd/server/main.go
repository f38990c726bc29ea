package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wbparse/backend/config"
	"github.com/wbparse/backend/internal/app"
	"github.com/wbparse/backend/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(appLogger)
	appLogger.Info("starting wbparse api",
		slog.String("environment", cfg.Server.Environment),
		slog.String("port", cfg.Server.Port),
		slog.String("storage", cfg.Storage.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Serve(ctx, cfg, appLogger); err != nil {
		appLogger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
