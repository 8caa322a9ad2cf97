// Package tfl fetches Transport for London route sequences. Route
// data can come from the live Unified API, a database cache of earlier
// responses, or static snapshot files shipped with the application;
// the fallback chain keeps the scene buildable with no network at all.
package tfl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the TfL Unified API.
type Client struct {
	baseURL    string
	appKey     string
	httpClient *http.Client
}

// New creates an API client. appKey may be empty; anonymous requests
// work with tighter rate limits.
func New(baseURL, appKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appKey:     appKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RouteSequence fetches the raw route-sequence document for one line
// and direction. The raw payload is returned so callers can cache the
// response byte-for-byte.
func (c *Client) RouteSequence(ctx context.Context, lineID, direction string) ([]byte, error) {
	u := fmt.Sprintf("%s/Line/%s/Route/Sequence/%s",
		c.baseURL, url.PathEscape(lineID), url.PathEscape(direction))
	if c.appKey != "" {
		u += "?app_key=" + url.QueryEscape(c.appKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route sequence request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("route sequence for %s/%s returned status %d", lineID, direction, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
