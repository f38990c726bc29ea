package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbparse/backend/internal/domain"
)

func TestPageSize(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 300},
		{-1, 300},
		{1, 10},
		{10, 10},
		{150, 150},
		{300, 300},
		{301, 300},
		{5000, 300},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pageSize(tt.limit), "limit %d", tt.limit)
	}
}

func TestCollector_StopsOnShortPage(t *testing.T) {
	src := &fakeSearch{name: "v5", pages: map[int][]domain.SearchItem{
		1: itemRange(1, 300),
		2: itemRange(1001, 7),
		3: itemRange(2001, 300),
	}}
	c := NewCollector([]domain.SearchSource{src}, 0, discard)

	items, err := c.Search(context.Background(), "foo", 0, 0)

	require.NoError(t, err)
	assert.Len(t, items, 307)
	assert.Equal(t, []searchCall{{1, 300}, {2, 300}}, src.calls)
}

func TestCollector_StopsAtMaxPages(t *testing.T) {
	src := &endlessSearch{}
	c := NewCollector([]domain.SearchSource{src}, 0, discard)

	items, err := c.Search(context.Background(), "foo", 0, 2)

	require.NoError(t, err)
	assert.Len(t, items, 600)
	assert.Equal(t, 2, src.calls)
}

func TestCollector_StopsAtLimitMidPage(t *testing.T) {
	src := &endlessSearch{}
	c := NewCollector([]domain.SearchSource{src}, 0, discard)

	items, err := c.Search(context.Background(), "foo", 4, 0)

	require.NoError(t, err)
	assert.Equal(t, []int64{10000, 10001, 10002, 10003}, idsOf(items))
	assert.Equal(t, 1, src.calls)
}

func TestCollector_LimitKeepsEarlierPages(t *testing.T) {
	src := &fakeSearch{name: "v5", pages: map[int][]domain.SearchItem{
		1: append(itemRange(1, 10), itemRange(1, 5)...),
		2: itemRange(100, 15),
	}}
	c := NewCollector([]domain.SearchSource{src}, 0, discard)

	items, err := c.Search(context.Background(), "foo", 15, 0)

	require.NoError(t, err)
	require.Len(t, items, 15)
	assert.Equal(t, int64(10), items[9].ID)
	assert.Equal(t, int64(104), items[14].ID)
	assert.Equal(t, []searchCall{{1, 15}, {2, 15}}, src.calls)
}

func TestCollector_FallsBackToNextSource(t *testing.T) {
	broken := &fakeSearch{name: "v5", err: status(500)}
	empty := &fakeSearch{name: "v4"}
	good := &fakeSearch{name: "v3", pages: map[int][]domain.SearchItem{1: itemRange(1, 3)}}
	c := NewCollector([]domain.SearchSource{broken, empty, good}, 0, discard)

	items, err := c.Search(context.Background(), "foo", 0, 0)

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, idsOf(items))
	assert.Len(t, broken.calls, 1)
	assert.Len(t, empty.calls, 1)
}

func TestCollector_ExhaustedSourcesEndSearch(t *testing.T) {
	first := &fakeSearch{name: "v5", pages: map[int][]domain.SearchItem{1: itemRange(1, 300)}}
	second := &fakeSearch{name: "v4", err: errors.New("connection reset")}
	c := NewCollector([]domain.SearchSource{first, second}, 0, discard)

	items, err := c.Search(context.Background(), "foo", 0, 0)

	require.NoError(t, err)
	assert.Len(t, items, 300)
	assert.Len(t, first.calls, 2)
	assert.Len(t, second.calls, 1, "only asked for page 2")
}

func TestCollector_DeduplicatesAndDropsInvalidIDs(t *testing.T) {
	src := &fakeSearch{name: "v5", pages: map[int][]domain.SearchItem{
		1: {item(5), item(0), item(-3), item(7), item(5), item(9)},
	}}
	c := NewCollector([]domain.SearchSource{src}, 0, discard)

	items, err := c.Search(context.Background(), "foo", 0, 0)

	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7, 9}, idsOf(items))
}

func TestCollector_FullPageWithDroppedProductKeepsPaging(t *testing.T) {
	src := &fakeSearch{
		name: "v5",
		pages: map[int][]domain.SearchItem{
			1: itemRange(1, 299),
			2: itemRange(1001, 5),
		},
		dropped: map[int]int{1: 1},
	}
	c := NewCollector([]domain.SearchSource{src}, 0, discard)

	items, err := c.Search(context.Background(), "foo", 0, 0)

	require.NoError(t, err)
	assert.Len(t, items, 304)
	assert.Equal(t, []searchCall{{1, 300}, {2, 300}}, src.calls)
}

func TestCollector_PageOfDroppedProductsIsNotEmpty(t *testing.T) {
	first := &fakeSearch{
		name: "v5",
		pages: map[int][]domain.SearchItem{
			1: itemRange(1, 300),
			3: itemRange(501, 4),
		},
		dropped: map[int]int{2: 300},
	}
	second := &fakeSearch{name: "v4"}
	c := NewCollector([]domain.SearchSource{first, second}, 0, discard)

	items, err := c.Search(context.Background(), "foo", 0, 0)

	require.NoError(t, err)
	assert.Len(t, items, 304)
	assert.Len(t, first.calls, 3)
	assert.Empty(t, second.calls)
}

func TestCollector_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCollector([]domain.SearchSource{&endlessSearch{}}, 0, discard)

	_, err := c.Search(ctx, "foo", 0, 0)

	assert.ErrorIs(t, err, context.Canceled)
}
