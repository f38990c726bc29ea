package wb

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/wbparse/backend/internal/domain"
)

// DetailEndpoint is one card detail API version.
type DetailEndpoint struct {
	client *Client
	url    string
	name   string
	extra  url.Values
}

// NewDetailEndpoint binds a detail URL to client. The unversioned
// cards/detail endpoint needs extra region and pricing params.
func NewDetailEndpoint(client *Client, endpoint string) *DetailEndpoint {
	e := &DetailEndpoint{client: client, url: endpoint, name: sourceName(endpoint)}
	if strings.HasSuffix(strings.TrimRight(endpoint, "/"), "/cards/detail") {
		e.extra = url.Values{
			"reg":              {"0"},
			"emp":              {"0"},
			"locale":           {"ru"},
			"lang":             {"ru"},
			"pricemarginCoeff": {"1.0"},
		}
	}
	return e
}

// NewDetailSources builds the ranked detail source list in urls order.
func NewDetailSources(client *Client, urls []string) []domain.DetailSource {
	sources := make([]domain.DetailSource, 0, len(urls))
	for _, u := range urls {
		sources = append(sources, NewDetailEndpoint(client, u))
	}
	return sources
}

func (e *DetailEndpoint) Name() string { return e.name }

// Details fetches stock and price for a batch of ids.
func (e *DetailEndpoint) Details(ctx context.Context, ids []int64) ([]domain.DetailRecord, error) {
	nm := make([]string, len(ids))
	for i, id := range ids {
		nm[i] = strconv.FormatInt(id, 10)
	}

	params := baseParams()
	params.Set("nm", strings.Join(nm, ";"))
	e.client.identity.Geo.Apply(params)
	for k, v := range e.extra {
		params[k] = v
	}

	body, err := e.client.getJSON(ctx, e.name, e.url, params)
	if err != nil {
		return nil, err
	}
	return DecodeDetails(body)
}

func baseParams() url.Values {
	return url.Values{
		"appType": {"1"},
		"curr":    {"rub"},
	}
}
