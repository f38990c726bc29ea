package wb

import (
	"context"
	"net/url"
	"strconv"
)

// HTMLPage fetches the rendered search results page.
type HTMLPage struct {
	client *Client
	url    string
	name   string
}

// NewHTMLPage binds the HTML search URL to client.
func NewHTMLPage(client *Client, endpoint string) *HTMLPage {
	return &HTMLPage{client: client, url: endpoint, name: sourceName(endpoint)}
}

// SearchHTML returns the page body for query and page.
func (p *HTMLPage) SearchHTML(ctx context.Context, query string, page int) (string, error) {
	params := url.Values{
		"search": {query},
		"page":   {strconv.Itoa(page)},
	}
	return p.client.getHTML(ctx, p.name, p.url, params)
}
