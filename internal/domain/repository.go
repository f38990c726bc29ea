package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SearchSource is one catalog search endpoint. Implementations are tried
// in rank order; a page with no products means "nothing here, try the next one".
type SearchSource interface {
	Name() string
	SearchPage(ctx context.Context, query string, page, pageSize int) (SearchResult, error)
}

// DetailSource is one card detail endpoint. Throttling is reported as a
// *StatusError so the caller can decide whether to retry in place.
type DetailSource interface {
	Name() string
	Details(ctx context.Context, ids []int64) ([]DetailRecord, error)
}

// PageSource fetches the rendered search results page.
type PageSource interface {
	SearchHTML(ctx context.Context, query string, page int) (string, error)
}

// ProductRepository persists reconciled products keyed by nm_id.
type ProductRepository interface {
	Upsert(ctx context.Context, products []Product) (int, error)
	List(ctx context.Context) ([]StoredProduct, error)
	Close() error
}
