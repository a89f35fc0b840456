package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/quocvuong92/omni-cli/internal/config"
)

const BraveAPIURL = "https://api.search.brave.com/res/v1/web/search"

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// BraveClient queries the Brave Search API.
type BraveClient struct {
	*BaseClient
	Endpoint string
	Count    int
}

var _ Client = (*BraveClient)(nil)

// NewBraveClient creates a Brave client over the given key pool.
func NewBraveClient(keys *config.KeyRotator, count int) *BraveClient {
	return &BraveClient{
		BaseClient: NewBaseClient(keys, "Brave"),
		Endpoint:   BraveAPIURL,
		Count:      count,
	}
}

func (c *BraveClient) Name() string { return config.SearchBrave }

// Search performs a web search, rotating keys on auth and quota failures.
func (c *BraveClient) Search(ctx context.Context, query string) ([]Result, error) {
	resp, err := SearchWithRetry(ctx, query, c.BaseClient, c.doSearch)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(resp.Web.Results))
	for _, r := range resp.Web.Results {
		results = append(results, Result{Title: r.Title, Body: r.Description, URL: r.URL})
	}
	return limit(results, c.Count), nil
}

func (c *BraveClient) doSearch(ctx context.Context, query string) (*braveResponse, error) {
	reqURL, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	if c.Count > 0 {
		params.Set("count", strconv.Itoa(c.Count))
	}
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.GetCurrentKey())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Brave API error: status code %d", resp.StatusCode),
		}
	}

	var out braveResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}
