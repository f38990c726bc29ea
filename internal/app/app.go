// Package app assembles the pipeline and its collaborators from config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wbparse/backend/config"
	"github.com/wbparse/backend/internal/domain"
	"github.com/wbparse/backend/internal/infrastructure/cache"
	"github.com/wbparse/backend/internal/infrastructure/session"
	"github.com/wbparse/backend/internal/infrastructure/storage"
	"github.com/wbparse/backend/internal/infrastructure/wb"
	"github.com/wbparse/backend/internal/usecase"
)

// App is a wired pipeline. Repository is nil when built without storage.
type App struct {
	Service    *usecase.ParseService
	Identity   *session.Identity
	Repository domain.ProductRepository

	cache *cache.MemoryCache
}

// Options tweaks Build.
type Options struct {
	// WithStorage opens the configured product repository.
	WithStorage bool
	// HTMLMeta overrides cfg.Source.HTMLMeta when set.
	HTMLMeta *bool
}

// Build bootstraps the session and wires sources, pipeline and storage.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	identity, err := session.Bootstrap(ctx, session.Options{
		UserAgentFile: cfg.Source.UserAgentFile,
		CookiesFile:   cfg.Source.CookiesFile,
		GeoURL:        cfg.Source.GeoURL,
		Address:       cfg.Source.Address,
		Timeout:       cfg.Source.Timeout,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap session: %w", err)
	}

	client := wb.NewClient(identity, wb.Options{
		Timeout:           cfg.Source.Timeout,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		Logger:            logger,
	})
	pacing := PacingFromConfig(cfg.Pacing)

	collector := usecase.NewCollector(wb.NewSearchSources(client, cfg.Source.SearchURLs), pacing.Search, logger)
	details := usecase.NewDetailFetcher(wb.NewDetailSources(client, cfg.Source.DetailURLs), pacing, logger)

	htmlMeta := cfg.Source.HTMLMeta
	if opts.HTMLMeta != nil {
		htmlMeta = *opts.HTMLMeta
	}
	var scraper *usecase.HTMLScraper
	if htmlMeta {
		scraper = usecase.NewHTMLScraper(wb.NewHTMLPage(client, cfg.Source.HTMLURL), pacing, logger)
	}

	a := &App{Identity: identity}
	if opts.WithStorage {
		repo, err := storage.Open(ctx, storage.Config{
			Driver: cfg.Storage.Driver,
			Path:   cfg.Storage.Path,
			DSN:    cfg.Storage.DSN,
		})
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.Repository = repo
		a.cache = cache.NewMemoryCache(10 * time.Minute)
	}

	svcConfig := usecase.ParseServiceConfig{
		HTML:     scraper,
		CacheTTL: cfg.Cache.TTL,
		Logger:   logger,
	}
	if a.Repository != nil {
		svcConfig.Repository = a.Repository
		svcConfig.Cache = a.cache
	}
	a.Service = usecase.NewParseService(collector, details, svcConfig)

	logger.Info("pipeline ready",
		slog.Int("search_sources", len(cfg.Source.SearchURLs)),
		slog.Int("detail_sources", len(cfg.Source.DetailURLs)),
		slog.Bool("html_meta", htmlMeta),
		slog.Bool("storage", a.Repository != nil),
		slog.Bool("geo_resolved", identity.Geo.XInfo != ""))
	return a, nil
}

// PacingFromConfig copies the configured pauses.
func PacingFromConfig(p config.PacingConfig) usecase.Pacing {
	return usecase.Pacing{
		Search:          p.Search,
		Detail:          p.Detail,
		HTML:            p.HTML,
		ThrottleBackoff: p.ThrottleBackoff,
		ErrorBackoff:    p.ErrorBackoff,
		HTMLRetry:       p.HTMLRetry,
	}
}

// Close releases storage and background goroutines.
func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		a.cache.Close()
	}
	if a.Repository != nil {
		errs = append(errs, a.Repository.Close())
	}
	return errors.Join(errs...)
}
