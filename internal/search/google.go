package search

import (
	"context"

	googlesearch "github.com/rocketlaunchr/google-search"

	"github.com/quocvuong92/omni-cli/internal/config"
)

// GoogleClient scrapes Google result pages.
type GoogleClient struct {
	Count int
	// search is swapped in tests.
	search func(ctx context.Context, query string, opts ...googlesearch.SearchOptions) ([]googlesearch.Result, error)
}

var _ Client = (*GoogleClient)(nil)

// NewGoogleClient returns a client asking for count results.
func NewGoogleClient(count int) *GoogleClient {
	return &GoogleClient{Count: count, search: googlesearch.Search}
}

func (c *GoogleClient) Name() string { return config.SearchGoogle }

// Search runs the query and maps the scraped hits to Results.
func (c *GoogleClient) Search(ctx context.Context, query string) ([]Result, error) {
	hits, err := c.search(ctx, query, googlesearch.SearchOptions{Limit: c.Count})
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{Title: h.Title, Body: h.Description, URL: h.URL})
	}
	return limit(results, c.Count), nil
}
