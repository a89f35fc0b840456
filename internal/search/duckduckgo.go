package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/constants"
	"github.com/quocvuong92/omni-cli/internal/logging"
)

const DuckDuckGoHTMLURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoClient scrapes the ranked web results of DuckDuckGo's HTML
// endpoint. It needs no key.
type DuckDuckGoClient struct {
	HTTPClient *http.Client
	Endpoint   string
	Count      int
}

var _ Client = (*DuckDuckGoClient)(nil)

// NewDuckDuckGoClient returns a client that keeps at most count results.
func NewDuckDuckGoClient(count int) *DuckDuckGoClient {
	return &DuckDuckGoClient{
		HTTPClient: logging.NewHTTPClient(constants.DefaultSearchTimeout),
		Endpoint:   DuckDuckGoHTMLURL,
		Count:      count,
	}
}

func (c *DuckDuckGoClient) Name() string { return config.SearchDuckDuckGo }

// Search returns the organic results in page order. Ads are skipped.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string) ([]Result, error) {
	reqURL, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", constants.AppName)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("DuckDuckGo error: status code %d", resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return limit(parseDuckDuckGo(doc), c.Count), nil
}

func parseDuckDuckGo(doc *goquery.Document) []Result {
	var results []Result
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("result--ad") {
			return
		}
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}
		href, _ := link.Attr("href")
		results = append(results, Result{
			Title: title,
			Body:  strings.TrimSpace(s.Find(".result__snippet").First().Text()),
			URL:   resultURL(href),
		})
	})
	return results
}

// resultURL unwraps DuckDuckGo's redirect links (//duckduckgo.com/l/?uddg=...).
func resultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && u.Host != "" {
		u.Scheme = "https"
	}
	return u.String()
}
