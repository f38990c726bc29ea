package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/wbparse/backend/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nm_id INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	price INTEGER NOT NULL,
	rating REAL NOT NULL DEFAULT 0,
	review_count INTEGER NOT NULL DEFAULT 0,
	stock INTEGER NOT NULL DEFAULT 0
);
`

const sqliteUpsert = `
INSERT INTO products (nm_id, name, price, rating, review_count, stock)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(nm_id) DO UPDATE SET
	name = excluded.name,
	price = excluded.price,
	rating = excluded.rating,
	review_count = excluded.review_count,
	stock = excluded.stock
`

// SQLiteRepository stores products in a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path, creating parent
// directories as needed.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Upsert inserts or updates products in one transaction and returns how
// many were written.
func (r *SQLiteRepository) Upsert(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, p := range products {
		if p.NmID <= 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, p.NmID, p.Name, storedPrice(p), p.Rating, p.ReviewCount, p.Stock); err != nil {
			return 0, fmt.Errorf("failed to upsert product %d: %w", p.NmID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return n, nil
}

// List returns every stored product, newest row first.
func (r *SQLiteRepository) List(ctx context.Context) ([]domain.StoredProduct, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nm_id, name, price, rating, review_count, stock FROM products ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	out := []domain.StoredProduct{}
	for rows.Next() {
		var p domain.StoredProduct
		if err := rows.Scan(&p.ID, &p.NmID, &p.Name, &p.Price, &p.Rating, &p.ReviewCount, &p.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
