package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbparse/backend/internal/domain"
	"github.com/wbparse/backend/internal/infrastructure/cache"
)

type fakeRepo struct {
	mu        sync.Mutex
	stored    []domain.Product
	lists     int
	upsertErr error
}

func (r *fakeRepo) Upsert(_ context.Context, products []domain.Product) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return 0, r.upsertErr
	}
	r.stored = append(r.stored, products...)
	return len(products), nil
}

func (r *fakeRepo) List(_ context.Context) ([]domain.StoredProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	out := make([]domain.StoredProduct, 0, len(r.stored))
	for i, p := range r.stored {
		out = append(out, domain.StoredProduct{ID: int64(i + 1), NmID: p.NmID, Name: p.Name, Price: p.PriceFinal})
	}
	return out, nil
}

func (r *fakeRepo) Close() error { return nil }

func fooSources() (*fakeSearch, *fakeSearch, *fakeDetail) {
	first := &fakeSearch{name: "v5", pages: map[int][]domain.SearchItem{
		1: {
			{ID: 11, Name: "foo one", SalePriceU: raw(50000), ReviewRating: raw(4.5), Feedbacks: raw(3)},
			{ID: 12, Name: "foo two", SalePriceU: raw(70000), Rating: raw(48)},
		},
	}}
	second := &fakeSearch{name: "v4"}
	detail := &fakeDetail{name: "v2", records: map[int64]domain.DetailRecord{
		11: {ID: 11, Stock: 5, Price: ptr(int64(450))},
		12: {ID: 12, Stock: 1},
	}}
	return first, second, detail
}

func TestParseService_Run_EndToEnd(t *testing.T) {
	first, second, detail := fooSources()
	svc := NewParseService(
		NewCollector([]domain.SearchSource{first, second}, 0, discard),
		NewDetailFetcher(detailSources(detail), Pacing{}, discard),
		ParseServiceConfig{Logger: discard},
	)

	products, err := svc.Run(context.Background(), domain.ParseRequest{Query: "foo"})

	require.NoError(t, err)
	require.Equal(t, 1, detail.calls())
	assert.Equal(t, []int64{11, 12}, detail.batches[0])
	assert.Empty(t, second.calls, "first source answered page 1")
	assert.Equal(t, []domain.Product{
		{NmID: 11, Name: "foo one", PriceAPI: 450, PriceFinal: 450, Rating: 4.5, ReviewCount: 3, Stock: 5},
		{NmID: 12, Name: "foo two", PriceAPI: 700, PriceFinal: 700, Rating: 4.8, Stock: 1},
	}, products)
}

func TestParseService_Run_WithHTML(t *testing.T) {
	first, second, detail := fooSources()
	pages := &fakePages{bodies: map[int]string{
		1: htmlPage(card(12, 0, 650), card(11, 1, 400)),
	}}
	svc := NewParseService(
		NewCollector([]domain.SearchSource{first, second}, 0, discard),
		NewDetailFetcher(detailSources(detail), Pacing{}, discard),
		ParseServiceConfig{HTML: NewHTMLScraper(pages, Pacing{}, discard), Logger: discard},
	)

	products, err := svc.Run(context.Background(), domain.ParseRequest{Query: "foo"})

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(12), products[0].NmID)
	assert.Equal(t, int64(650), products[0].PriceFinal)
	assert.Equal(t, int64(11), products[1].NmID)
	assert.Equal(t, int64(400), products[1].PriceFinal)
	assert.Equal(t, int64(450), products[1].PriceAPI)
	assert.Equal(t, []int{1}, pages.calls)
}

func TestParseService_Run_EmptySearch(t *testing.T) {
	detail := &fakeDetail{name: "v2"}
	svc := NewParseService(
		NewCollector([]domain.SearchSource{&fakeSearch{name: "v5"}}, 0, discard),
		NewDetailFetcher(detailSources(detail), Pacing{}, discard),
		ParseServiceConfig{Logger: discard},
	)

	products, err := svc.Run(context.Background(), domain.ParseRequest{Query: "nothing"})

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Zero(t, detail.calls())
}

func TestParseService_Run_RequiresQuery(t *testing.T) {
	svc := NewParseService(NewCollector(nil, 0, discard), NewDetailFetcher(nil, Pacing{}, discard), ParseServiceConfig{})

	_, err := svc.Run(context.Background(), domain.ParseRequest{Query: "   "})

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestParseService_ParseAndList(t *testing.T) {
	first, second, detail := fooSources()
	repo := &fakeRepo{}
	svc := NewParseService(
		NewCollector([]domain.SearchSource{first, second}, 0, discard),
		NewDetailFetcher(detailSources(detail), Pacing{}, discard),
		ParseServiceConfig{
			Repository: repo,
			Cache:      cache.NewMemoryCache(time.Minute),
			CacheTTL:   time.Minute,
			Logger:     discard,
		},
	)
	ctx := context.Background()

	result, err := svc.Parse(ctx, domain.ParseRequest{Query: " foo "})
	require.NoError(t, err)
	assert.Equal(t, &domain.ParseResult{InsertedOrUpdated: 2, TotalFetched: 2, Query: "foo"}, result)

	listed, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	_, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists, "second read is served from cache")

	first.calls = nil
	_, err = svc.Parse(ctx, domain.ParseRequest{Query: "foo"})
	require.NoError(t, err)
	listed, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 4)
	assert.Equal(t, 2, repo.lists, "parse invalidates the cache")
}

func TestParseService_StorageErrors(t *testing.T) {
	first, second, detail := fooSources()
	collector := NewCollector([]domain.SearchSource{first, second}, 0, discard)
	fetcher := NewDetailFetcher(detailSources(detail), Pacing{}, discard)

	noRepo := NewParseService(collector, fetcher, ParseServiceConfig{Logger: discard})
	_, err := noRepo.Parse(context.Background(), domain.ParseRequest{Query: "foo"})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	_, err = noRepo.ListProducts(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	failing := NewParseService(collector, fetcher, ParseServiceConfig{
		Repository: &fakeRepo{upsertErr: errors.New("disk full")},
		Logger:     discard,
	})
	_, err = failing.Parse(context.Background(), domain.ParseRequest{Query: "foo"})
	assert.ErrorContains(t, err, "disk full")
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "термо паста", normalizeQuery("  термо \t  паста\n"))
	assert.Equal(t, "", normalizeQuery("   "))
	assert.Equal(t, "ча\u0439", normalizeQuery("ча\u0438\u0306"))
}
