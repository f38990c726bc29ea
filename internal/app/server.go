package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wbparse/backend/config"
	httpDelivery "github.com/wbparse/backend/internal/delivery/http"
)

const shutdownTimeout = 10 * time.Second

// Serve builds the pipeline with storage and serves the HTTP API until
// ctx is done.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := Build(ctx, cfg, logger, Options{WithStorage: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close resources failed", slog.String("error", err.Error()))
		}
	}()

	handler := httpDelivery.NewHandler(a.Service, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           httpDelivery.SetupRouter(cfg, handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening",
			slog.String("addr", httpServer.Addr),
			slog.String("environment", cfg.Server.Environment))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server run failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}
