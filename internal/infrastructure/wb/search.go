package wb

import (
	"context"
	"strconv"

	"github.com/wbparse/backend/internal/domain"
)

// SearchEndpoint is one catalog search API version.
type SearchEndpoint struct {
	client *Client
	url    string
	name   string
}

// NewSearchEndpoint binds a search URL to client.
func NewSearchEndpoint(client *Client, endpoint string) *SearchEndpoint {
	return &SearchEndpoint{client: client, url: endpoint, name: sourceName(endpoint)}
}

// NewSearchSources builds the ranked search source list in urls order.
func NewSearchSources(client *Client, urls []string) []domain.SearchSource {
	sources := make([]domain.SearchSource, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, NewSearchEndpoint(client, u))
	}
	return sources
}

func (e *SearchEndpoint) Name() string { return e.name }

// SearchPage fetches one result page sorted by popularity.
func (e *SearchEndpoint) SearchPage(ctx context.Context, query string, page, pageSize int) (domain.SearchResult, error) {
	params := baseParams()
	params.Set("resultset", "catalog")
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(pageSize))
	params.Set("query", query)
	params.Set("sort", "popular")
	params.Set("locale", "ru")
	e.client.identity.Geo.Apply(params)

	body, err := e.client.getJSON(ctx, e.name, e.url, params)
	if err != nil {
		return domain.SearchResult{}, err
	}
	return DecodeSearchItems(body)
}
