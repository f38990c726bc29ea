package usecase

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wbparse/backend/internal/domain"
	"github.com/wbparse/backend/internal/infrastructure/markup"
)

// DefaultHTMLMaxPages bounds the scrape when the caller gives no page limit.
const DefaultHTMLMaxPages = 50

// statusTokenExpired is the anti-bot "token expired" answer of the site.
const statusTokenExpired = 498

// HTMLScraper reads wallet prices and card positions from rendered
// search pages.
type HTMLScraper struct {
	pages  domain.PageSource
	pacing Pacing
	logger *slog.Logger
}

// NewHTMLScraper creates a scraper. Only the HTML and HTMLRetry pauses are
// used.
func NewHTMLScraper(pages domain.PageSource, pacing Pacing, logger *slog.Logger) *HTMLScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLScraper{pages: pages, pacing: pacing, logger: logger}
}

// Scrape walks search pages for query until every id is resolved, a page
// has no cards, or maxPages is passed. Fetch failures end the walk and what
// was resolved so far is returned; the only error is context cancellation.
func (s *HTMLScraper) Scrape(ctx context.Context, query string, ids []int64, maxPages int) (map[int64]domain.HTMLMeta, error) {
	if maxPages <= 0 {
		maxPages = DefaultHTMLMaxPages
	}

	pending := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		pending[id] = struct{}{}
	}
	out := make(map[int64]domain.HTMLMeta)

	for page := 1; len(pending) > 0 && page <= maxPages; page++ {
		body, err := s.fetch(ctx, query, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			s.logger.Warn("html page fetch failed",
				slog.Int("page", page),
				slog.Any("error", err))
			return out, nil
		}

		cards := markup.Extract(body)
		for id, card := range cards {
			if _, ok := pending[id]; !ok {
				continue
			}
			out[id] = domain.HTMLMeta{
				ID:          id,
				WalletPrice: card.WalletPrice,
				Index:       card.Index,
				Page:        page,
			}
			delete(pending, id)
		}
		if len(cards) == 0 {
			s.logger.Debug("html page has no cards", slog.Int("page", page))
			return out, nil
		}

		if err := sleep(ctx, s.pacing.HTML); err != nil {
			return out, err
		}
	}
	return out, nil
}

// fetch gets one page, retrying once when the site asks to slow down.
func (s *HTMLScraper) fetch(ctx context.Context, query string, page int) (string, error) {
	body, err := s.pages.SearchHTML(ctx, query, page)
	if err == nil || !retryableHTML(err) {
		return body, err
	}
	if err := sleep(ctx, s.pacing.HTMLRetry); err != nil {
		return "", err
	}
	return s.pages.SearchHTML(ctx, query, page)
}

func retryableHTML(err error) bool {
	switch domain.StatusCode(err) {
	case http.StatusTooManyRequests, statusTokenExpired, http.StatusServiceUnavailable:
		return true
	}
	return false
}
