package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"price_tracker/internal/model"
)

// storefrontProduct is the wire shape of one product in a storefront JSON
// API response.
type storefrontProduct struct {
	Name          string   `json:"name"`
	Brand         string   `json:"brand"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	PricePerKg    *float64 `json:"price_per_kg"`
	PackSize      string   `json:"pack_size"`
	PackUnit      string   `json:"pack_unit"`
	InStock       bool     `json:"in_stock"`
	Organic       bool     `json:"organic"`
	ImageURL      string   `json:"image_url"`
	URL           string   `json:"url"`
}

// StorefrontAPI collects from stores that expose a JSON product listing
// endpoint under /api/products.
type StorefrontAPI struct {
	store   model.Store
	client  HTTPClient
	limiter *rate.Limiter
}

// NewStorefrontAPI creates a StorefrontAPI adapter for the given store.
func NewStorefrontAPI(store model.Store, client HTTPClient) *StorefrontAPI {
	return &StorefrontAPI{store: store, client: client, limiter: newLimiter()}
}

// Name returns the store name.
func (a *StorefrontAPI) Name() string {
	return a.store.Name
}

// ScrapeAll downloads the full product listing.
func (a *StorefrontAPI) ScrapeAll(ctx context.Context) ([]model.ScrapedItem, error) {
	return a.fetch(ctx, strings.TrimRight(a.store.URL, "/")+"/api/products")
}

// SearchProduct queries the listing endpoint with a search term.
func (a *StorefrontAPI) SearchProduct(ctx context.Context, name string) ([]model.ScrapedItem, error) {
	endpoint := strings.TrimRight(a.store.URL, "/") + "/api/products?q=" + url.QueryEscape(name)
	return a.fetch(ctx, endpoint)
}

func (a *StorefrontAPI) fetch(ctx context.Context, endpoint string) ([]model.ScrapedItem, error) {
	body, err := fetchBody(ctx, a.client, a.limiter, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.store.Name, err)
	}

	var products []storefrontProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%s: decode products: %w", a.store.Name, err)
	}

	now := time.Now().UTC()
	items := make([]model.ScrapedItem, 0, len(products))
	for _, p := range products {
		item := model.ScrapedItem{
			Name:          p.Name,
			Brand:         p.Brand,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			PricePerKg:    p.PricePerKg,
			PackSize:      p.PackSize,
			PackUnit:      p.PackUnit,
			IsAvailable:   p.InStock,
			IsOrganic:     p.Organic,
			ImageURL:      p.ImageURL,
			ProductURL:    p.URL,
			ScrapedAt:     now,
		}
		if p.OriginalPrice != nil && *p.OriginalPrice > p.Price {
			item.IsDiscounted = true
		}
		if item.PricePerKg == nil {
			item.PricePerKg = PricePerKg(item.Price, item.PackSize, item.PackUnit)
		}
		items = append(items, item)
	}
	return items, nil
}
