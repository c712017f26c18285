// Package scraper defines the store adapter contract and the built-in
// adapter implementations.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"price_tracker/internal/model"
)

// Adapter is the pluggable, store-specific data collection capability.
// Implementations must distinguish failure (non-nil error) from zero
// results (empty slice, nil error).
type Adapter interface {
	// Name returns the store name the adapter collects for.
	Name() string

	// ScrapeAll performs a full catalog sweep for the store.
	ScrapeAll(ctx context.Context) ([]model.ScrapedItem, error)

	// SearchProduct returns listings matching the given free-text name.
	SearchProduct(ctx context.Context, name string) ([]model.ScrapedItem, error)
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	userAgent   = "PriceTrackerBot/1.0"
	maxBodySize = 10 * 1024 * 1024
)

// newLimiter returns the default per-adapter rate limiter: 2 requests per
// second with a small burst, enough for polite polling of storefronts.
func newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(2), 5)
}

// fetchBody downloads a URL with the shared politeness rules: rate limiting,
// a stable User-Agent, and a bounded body size.
func fetchBody(ctx context.Context, client HTTPClient, limiter *rate.Limiter, url string) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
