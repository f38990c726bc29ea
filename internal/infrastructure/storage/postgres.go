package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wbparse/backend/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	nm_id BIGINT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	price INTEGER NOT NULL,
	rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count INTEGER NOT NULL DEFAULT 0,
	stock INTEGER NOT NULL DEFAULT 0
)`

const postgresUpsert = `
INSERT INTO products (nm_id, name, price, rating, review_count, stock)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (nm_id) DO UPDATE SET
	name = EXCLUDED.name,
	price = EXCLUDED.price,
	rating = EXCLUDED.rating,
	review_count = EXCLUDED.review_count,
	stock = EXCLUDED.stock`

const postgresBatchSize = 200

// PostgresRepository stores products in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and makes sure the table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create products table: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

// Upsert writes products in batches and returns how many rows were
// inserted or updated.
func (r *PostgresRepository) Upsert(ctx context.Context, products []domain.Product) (int, error) {
	total := 0
	for i := 0; i < len(products); i += postgresBatchSize {
		j := min(i+postgresBatchSize, len(products))

		b := &pgx.Batch{}
		for _, p := range products[i:j] {
			if p.NmID <= 0 {
				continue
			}
			b.Queue(postgresUpsert, p.NmID, p.Name, storedPrice(p), p.Rating, p.ReviewCount, p.Stock)
		}
		if b.Len() == 0 {
			continue
		}

		br := r.pool.SendBatch(ctx, b)
		for k := 0; k < b.Len(); k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, fmt.Errorf("upsert products: %w", err)
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, fmt.Errorf("upsert products: %w", err)
		}
	}
	return total, nil
}

// List returns every stored product, newest row first.
func (r *PostgresRepository) List(ctx context.Context) ([]domain.StoredProduct, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, nm_id, name, price, rating, review_count, stock FROM products ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StoredProduct, error) {
		var p domain.StoredProduct
		err := row.Scan(&p.ID, &p.NmID, &p.Name, &p.Price, &p.Rating, &p.ReviewCount, &p.Stock)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Close releases the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
