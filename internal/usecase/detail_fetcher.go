package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/wbparse/backend/internal/domain"
)

const (
	detailBatchSize = 100
	detailAttempts  = 3
)

// DetailFetcher resolves stock and price for product ids through the
// ranked detail sources.
type DetailFetcher struct {
	sources []domain.DetailSource
	pacing  Pacing
	logger  *slog.Logger
}

// NewDetailFetcher creates a fetcher over sources, in rank order. Only the
// Detail, ThrottleBackoff and ErrorBackoff pauses are used.
func NewDetailFetcher(sources []domain.DetailSource, pacing Pacing, logger *slog.Logger) *DetailFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetailFetcher{sources: sources, pacing: pacing, logger: logger}
}

// Fetch returns stock and price (major units) keyed by id. Ids whose batch
// failed on every source are absent from both maps. The only error is
// context cancellation.
func (f *DetailFetcher) Fetch(ctx context.Context, ids []int64) (map[int64]int, map[int64]int64, error) {
	stock := make(map[int64]int, len(ids))
	price := make(map[int64]int64, len(ids))

	for start := 0; start < len(ids); start += detailBatchSize {
		batch := ids[start:min(start+detailBatchSize, len(ids))]

		records, ok, err := f.fetchBatch(ctx, batch)
		if err != nil {
			return stock, price, err
		}
		if !ok {
			f.logger.Warn("detail batch failed on every source", slog.Int("ids", len(batch)))
		}
		for _, rec := range records {
			stock[rec.ID] = rec.Stock
			if rec.Price != nil {
				price[rec.ID] = *rec.Price
			}
		}

		if err := sleep(ctx, f.pacing.Detail); err != nil {
			return stock, price, err
		}
	}
	return stock, price, nil
}

// fetchBatch returns the records of the first source that answered.
func (f *DetailFetcher) fetchBatch(ctx context.Context, batch []int64) ([]domain.DetailRecord, bool, error) {
	for _, src := range f.sources {
		for attempt := 0; attempt < detailAttempts; attempt++ {
			records, err := src.Details(ctx, batch)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, false, ctxErr
			}
			if err == nil {
				f.logger.Debug("detail batch ok",
					slog.String("source", src.Name()),
					slog.Int("ids", len(batch)),
					slog.Int("records", len(records)))
				return records, true, nil
			}

			backoff := f.pacing.ErrorBackoff
			if domain.IsThrottled(err) {
				backoff = f.pacing.ThrottleBackoff
			} else {
				f.logger.Warn("detail request failed",
					slog.String("source", src.Name()),
					slog.Int("attempt", attempt+1),
					slog.Any("error", err))
			}
			if err := sleep(ctx, backoff*time.Duration(attempt+1)); err != nil {
				return nil, false, err
			}
		}
	}
	return nil, false, nil
}
