package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"price_tracker/internal/model"
)

// MerchantFeed collects from stores that publish a Google-Merchant-style
// RSS product feed. Product fields live in the "g" namespace extensions
// (price, sale_price, availability, brand, image_link).
type MerchantFeed struct {
	store   model.Store
	client  HTTPClient
	limiter *rate.Limiter
}

// NewMerchantFeed creates a MerchantFeed adapter for the given store.
func NewMerchantFeed(store model.Store, client HTTPClient) *MerchantFeed {
	return &MerchantFeed{store: store, client: client, limiter: newLimiter()}
}

// Name returns the store name.
func (a *MerchantFeed) Name() string {
	return a.store.Name
}

// ScrapeAll downloads and parses the full product feed.
func (a *MerchantFeed) ScrapeAll(ctx context.Context) ([]model.ScrapedItem, error) {
	body, err := fetchBody(ctx, a.client, a.limiter, a.store.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.store.Name, err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse feed: %w", a.store.Name, err)
	}

	now := time.Now().UTC()
	items := make([]model.ScrapedItem, 0, len(feed.Items))
	for _, fi := range feed.Items {
		item, err := feedItemToScraped(fi, now)
		if err != nil {
			// Malformed entries are skipped; the rest of the feed is
			// still usable.
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// SearchProduct downloads the feed and filters entries whose title contains
// the search term. Merchant feeds have no server-side search.
func (a *MerchantFeed) SearchProduct(ctx context.Context, name string) ([]model.ScrapedItem, error) {
	all, err := a.ScrapeAll(ctx)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(name)
	var matched []model.ScrapedItem
	for _, item := range all {
		if strings.Contains(strings.ToLower(item.Name), term) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

func feedItemToScraped(fi *gofeed.Item, now time.Time) (model.ScrapedItem, error) {
	priceRaw := gExt(fi, "price")
	if priceRaw == "" {
		return model.ScrapedItem{}, fmt.Errorf("feed item %q has no price", fi.Title)
	}
	price, err := parsePrice(priceRaw)
	if err != nil {
		return model.ScrapedItem{}, err
	}

	item := model.ScrapedItem{
		Name:        fi.Title,
		Brand:       gExt(fi, "brand"),
		Price:       price,
		IsAvailable: strings.EqualFold(gExt(fi, "availability"), "in stock"),
		ImageURL:    gExt(fi, "image_link"),
		ProductURL:  fi.Link,
		ScrapedAt:   now,
	}

	if saleRaw := gExt(fi, "sale_price"); saleRaw != "" {
		if sale, err := parsePrice(saleRaw); err == nil && sale > 0 && sale < price {
			original := price
			item.Price = sale
			item.OriginalPrice = &original
			item.IsDiscounted = true
		}
	}

	if measure := gExt(fi, "unit_pricing_measure"); measure != "" {
		if size, unit, ok := splitMeasure(measure); ok {
			item.PackSize = size
			item.PackUnit = unit
			item.PricePerKg = PricePerKg(item.Price, size, unit)
		}
	}

	return item, nil
}

// gExt reads the first value of a "g" namespace extension on a feed item.
func gExt(fi *gofeed.Item, key string) string {
	if fi.Extensions == nil {
		return ""
	}
	vals := fi.Extensions["g"][key]
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0].Value)
}

// splitMeasure splits a unit pricing measure such as "500g" or "1 kg" into
// its size and unit parts.
func splitMeasure(measure string) (size, unit string, ok bool) {
	measure = strings.TrimSpace(measure)
	i := strings.IndexFunc(measure, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != ' '
	})
	if i <= 0 {
		return "", "", false
	}
	size = strings.TrimSpace(measure[:i])
	unit = strings.TrimSpace(measure[i:])
	return size, unit, size != "" && unit != ""
}
