package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/wbparse/backend/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func raw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func item(id int64) domain.SearchItem {
	return domain.SearchItem{ID: id, Name: "item " + strconv.FormatInt(id, 10)}
}

func itemRange(first int64, n int) []domain.SearchItem {
	out := make([]domain.SearchItem, n)
	for i := range out {
		out[i] = item(first + int64(i))
	}
	return out
}

func idsOf(items []domain.SearchItem) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

type searchCall struct {
	Page     int
	PageSize int
}

// fakeSearch serves pages from a map; missing pages are empty. dropped
// adds products the decoder discarded to a page's raw count.
type fakeSearch struct {
	name    string
	pages   map[int][]domain.SearchItem
	dropped map[int]int
	err     error
	calls   []searchCall
}

func (f *fakeSearch) Name() string { return f.name }

func (f *fakeSearch) SearchPage(_ context.Context, _ string, page, pageSize int) (domain.SearchResult, error) {
	f.calls = append(f.calls, searchCall{Page: page, PageSize: pageSize})
	if f.err != nil {
		return domain.SearchResult{}, f.err
	}
	items := f.pages[page]
	return domain.SearchResult{Items: items, Raw: len(items) + f.dropped[page]}, nil
}

// endlessSearch returns a full page every time.
type endlessSearch struct {
	calls int
}

func (e *endlessSearch) Name() string { return "endless" }

func (e *endlessSearch) SearchPage(_ context.Context, _ string, page, pageSize int) (domain.SearchResult, error) {
	e.calls++
	return domain.SearchResult{Items: itemRange(int64(page*10000), pageSize), Raw: pageSize}, nil
}

// fakeDetail replays errs in order, then answers from records.
type fakeDetail struct {
	name    string
	errs    []error
	records map[int64]domain.DetailRecord

	mu      sync.Mutex
	batches [][]int64
}

func (f *fakeDetail) Name() string { return f.name }

func (f *fakeDetail) Details(_ context.Context, batch []int64) ([]domain.DetailRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]int64(nil), batch...))
	if n := len(f.batches); n <= len(f.errs) && f.errs[n-1] != nil {
		return nil, f.errs[n-1]
	}
	var out []domain.DetailRecord
	for _, id := range batch {
		if rec, ok := f.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeDetail) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// fakePages serves HTML by page number with optional per-call errors.
type fakePages struct {
	bodies map[int]string
	errs   []error

	mu    sync.Mutex
	calls []int
}

func (f *fakePages) SearchHTML(_ context.Context, _ string, page int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page)
	if n := len(f.calls); n <= len(f.errs) && f.errs[n-1] != nil {
		return "", f.errs[n-1]
	}
	return f.bodies[page], nil
}

func status(code int) error {
	return &domain.StatusError{Source: "fake", Code: code}
}

func card(id int64, index int, price int) string {
	return fmt.Sprintf(`<article data-nm-id="%d" data-card-index="%d"><ins class="price__lower-price">%d ₽</ins></article>`, id, index, price)
}

func htmlPage(cards ...string) string {
	body := "<html><body>"
	for _, c := range cards {
		body += c
	}
	return body + "</body></html>"
}

func ptr[T any](v T) *T { return &v }
