// Package storage persists reconciled products keyed by nm_id.
//
// Upsert writes name, price, rating, review_count and stock. The stored
// price is the final price, or the API price when the final one is zero.
package storage

import (
	"context"
	"fmt"

	"github.com/wbparse/backend/internal/domain"
)

// Config selects and locates a backend.
type Config struct {
	Driver string // "sqlite" or "postgres"
	Path   string
	DSN    string
}

// Open returns the repository for cfg.Driver.
func Open(ctx context.Context, cfg Config) (domain.ProductRepository, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return OpenSQLite(cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// storedPrice is the price column value for p.
func storedPrice(p domain.Product) int64 {
	if p.PriceFinal != 0 {
		return p.PriceFinal
	}
	return p.PriceAPI
}
