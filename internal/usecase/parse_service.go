package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/wbparse/backend/internal/domain"
	"github.com/wbparse/backend/internal/metrics"
)

const productsCacheKey = "products:all"

// ParseServiceConfig holds the optional collaborators of ParseService.
type ParseServiceConfig struct {
	// HTML is nil when the page metadata pass is disabled.
	HTML       *HTMLScraper
	Repository domain.ProductRepository
	Cache      domain.CacheRepository
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

// ParseService runs the catalog pipeline: search, then details and page
// metadata side by side, then reconciliation.
type ParseService struct {
	collector *Collector
	details   *DetailFetcher
	html      *HTMLScraper
	repo      domain.ProductRepository
	cache     domain.CacheRepository
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewParseService wires the pipeline stages.
func NewParseService(collector *Collector, details *DetailFetcher, config ParseServiceConfig) *ParseService {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Second
	}
	return &ParseService{
		collector: collector,
		details:   details,
		html:      config.HTML,
		repo:      config.Repository,
		cache:     config.Cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Run executes the pipeline and returns the reconciled products.
func (s *ParseService) Run(ctx context.Context, req domain.ParseRequest) ([]domain.Product, error) {
	query := normalizeQuery(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}

	items, err := s.collector.Search(ctx, query, req.Limit, req.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	metrics.AddProducts("search", len(items))
	s.logger.Info("search finished", slog.String("query", query), slog.Int("items", len(items)))
	if len(items) == 0 {
		return []domain.Product{}, nil
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}

	var (
		stock map[int64]int
		price map[int64]int64
		meta  map[int64]domain.HTMLMeta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stock, price, err = s.details.Fetch(gctx, ids)
		return err
	})
	if s.html != nil {
		g.Go(func() error {
			var err error
			meta, err = s.html.Scrape(gctx, query, ids, req.MaxPages)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	metrics.AddProducts("detail", len(stock))
	metrics.AddProducts("html", len(meta))

	products := Reconcile(items, stock, price, meta)
	metrics.AddProducts("reconciled", len(products))
	s.logger.Info("parse finished",
		slog.String("query", query),
		slog.Int("products", len(products)),
		slog.Int("with_detail", len(stock)),
		slog.Int("with_html", len(meta)))
	return products, nil
}

// Parse runs the pipeline and upserts the result into the repository.
func (s *ParseService) Parse(ctx context.Context, req domain.ParseRequest) (*domain.ParseResult, error) {
	if s.repo == nil {
		return nil, domain.ErrStorageUnavailable
	}

	products, err := s.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	n, err := s.repo.Upsert(ctx, products)
	if err != nil {
		return nil, fmt.Errorf("store products: %w", err)
	}
	s.invalidate(ctx)

	return &domain.ParseResult{
		InsertedOrUpdated: n,
		TotalFetched:      len(products),
		Query:             normalizeQuery(req.Query),
	}, nil
}

// ListProducts returns every stored product, served from the cache when
// a fresh copy is there.
func (s *ParseService) ListProducts(ctx context.Context) ([]domain.StoredProduct, error) {
	if s.repo == nil {
		return nil, domain.ErrStorageUnavailable
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, productsCacheKey); err == nil {
			if products, ok := cached.([]domain.StoredProduct); ok {
				return products, nil
			}
		}
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, productsCacheKey, products, s.cacheTTL); err != nil {
			s.logger.Warn("cache set failed", slog.Any("error", err))
		}
	}
	return products, nil
}

func (s *ParseService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productsCacheKey); err != nil {
		s.logger.Warn("cache invalidation failed", slog.Any("error", err))
	}
}

// normalizeQuery applies NFC and collapses whitespace runs.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(norm.NFC.String(q)), " ")
}
