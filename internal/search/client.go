// Package search runs web searches for the /search command. Providers are
// DuckDuckGo (no key), Brave (rotating key pool) and Google (scraped).
package search

import (
	"context"
	"fmt"

	"github.com/quocvuong92/omni-cli/internal/apperr"
	"github.com/quocvuong92/omni-cli/internal/config"
)

// Result is one ranked search hit.
type Result struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Client is a web search provider.
type Client interface {
	Search(ctx context.Context, query string) ([]Result, error)
	Name() string
}

// APIError is a non-200 answer from a search API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// New returns the provider selected by cfg.SearchProvider, limited to one
// query per second.
func New(cfg *config.Config) (Client, error) {
	var c Client
	switch cfg.SearchProvider {
	case "", config.SearchDuckDuckGo:
		c = NewDuckDuckGoClient(cfg.SearchResults)
	case config.SearchBrave:
		if !cfg.BraveKeys.HasKeys() {
			return nil, apperr.Configuration("search", fmt.Sprintf("brave search needs %s", config.EnvBraveAPIKeys))
		}
		c = NewBraveClient(cfg.BraveKeys, cfg.SearchResults)
	case config.SearchGoogle:
		c = NewGoogleClient(cfg.SearchResults)
	default:
		return nil, apperr.Wrap(apperr.KindConfiguration, "search", config.ErrInvalidSearchProvider)
	}
	return NewRateLimited(c, DefaultRate), nil
}

func limit(results []Result, n int) []Result {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}
