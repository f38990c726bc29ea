package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/wbparse/backend/internal/domain"
)

const (
	maxPageSize = 300
	minPageSize = 10
)

// Collector walks the ranked search sources page by page.
type Collector struct {
	sources []domain.SearchSource
	pause   time.Duration
	logger  *slog.Logger
}

// NewCollector creates a collector over sources, in rank order.
func NewCollector(sources []domain.SearchSource, pause time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{sources: sources, pause: pause, logger: logger}
}

// Search returns the items found for query in discovery order, unique by
// ID. limit and maxPages <= 0 mean unbounded. Source failures end the walk
// quietly; only context errors are returned.
//
// A page that listed fewer products than the page size is taken as the
// last one; products without a usable id still count toward that size. A transient
// partial response therefore truncates the result.
func (c *Collector) Search(ctx context.Context, query string, limit, maxPages int) ([]domain.SearchItem, error) {
	size := pageSize(limit)
	seen := make(map[int64]struct{})
	var out []domain.SearchItem

	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		if page > 1 {
			if err := sleep(ctx, c.pause); err != nil {
				return out, err
			}
		}

		res, err := c.fetchPage(ctx, query, page, size)
		if err != nil {
			return out, err
		}
		if res.Raw == 0 {
			c.logger.Debug("search exhausted", slog.Int("page", page))
			return out, nil
		}

		for _, item := range res.Items {
			if item.ID <= 0 {
				continue
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			out = append(out, item)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}

		if res.Raw < size {
			return out, nil
		}
	}
	return out, nil
}

// fetchPage asks each source in turn and returns the first page that
// listed any products. A zero Raw means every source failed or had nothing.
func (c *Collector) fetchPage(ctx context.Context, query string, page, size int) (domain.SearchResult, error) {
	for _, src := range c.sources {
		res, err := src.SearchPage(ctx, query, page, size)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.SearchResult{}, ctxErr
		}
		if err != nil {
			c.logger.Warn("search source failed",
				slog.String("source", src.Name()),
				slog.Int("page", page),
				slog.Any("error", err))
			continue
		}
		if res.Raw > 0 {
			return res, nil
		}
	}
	return domain.SearchResult{}, nil
}

// pageSize picks the per-page request size once per search.
func pageSize(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return min(max(minPageSize, limit), maxPageSize)
}
