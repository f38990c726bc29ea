package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbparse/backend/internal/domain"
)

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("WBPARSE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("WBPARSE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	repo, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer repo.Close()
	_, err = repo.pool.Exec(ctx, `TRUNCATE products RESTART IDENTITY`)
	require.NoError(t, err)

	n, err := repo.Upsert(ctx, []domain.Product{
		{NmID: 11, Name: "one", PriceFinal: 450},
		{NmID: 12, Name: "two", PriceAPI: 700},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.Upsert(ctx, []domain.Product{{NmID: 11, Name: "one v2", PriceFinal: 400}})
	require.NoError(t, err)

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(12), got[0].NmID)
	assert.Equal(t, "one v2", got[1].Name)
	assert.Equal(t, int64(400), got[1].Price)
}
