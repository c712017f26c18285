package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"price_tracker/internal/model"
)

// Selectors configures the CSS selectors used to pull product fields out of
// a server-rendered listing page.
type Selectors struct {
	Item          string
	Name          string
	Price         string
	OriginalPrice string
	PackInfo      string
	Image         string
	Link          string
}

// DefaultSelectors matches the markup most storefront themes render for
// product grids.
func DefaultSelectors() Selectors {
	return Selectors{
		Item:          ".product-card",
		Name:          ".product-name",
		Price:         ".product-price",
		OriginalPrice: ".product-price-original",
		PackInfo:      ".product-pack",
		Image:         "img",
		Link:          "a",
	}
}

// HTMLListing collects from stores that render product grids server-side.
type HTMLListing struct {
	store     model.Store
	client    HTTPClient
	limiter   *rate.Limiter
	selectors Selectors
}

// NewHTMLListing creates an HTMLListing adapter for the given store.
func NewHTMLListing(store model.Store, client HTTPClient, selectors Selectors) *HTMLListing {
	return &HTMLListing{
		store:     store,
		client:    client,
		limiter:   newLimiter(),
		selectors: selectors,
	}
}

// Name returns the store name.
func (a *HTMLListing) Name() string {
	return a.store.Name
}

// ScrapeAll downloads and parses the store's listing page.
func (a *HTMLListing) ScrapeAll(ctx context.Context) ([]model.ScrapedItem, error) {
	return a.fetch(ctx, a.store.URL)
}

// SearchProduct queries the store's search page with the given term.
func (a *HTMLListing) SearchProduct(ctx context.Context, name string) ([]model.ScrapedItem, error) {
	endpoint := strings.TrimRight(a.store.URL, "/") + "/search?q=" + url.QueryEscape(name)
	return a.fetch(ctx, endpoint)
}

func (a *HTMLListing) fetch(ctx context.Context, endpoint string) ([]model.ScrapedItem, error) {
	body, err := fetchBody(ctx, a.client, a.limiter, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.store.Name, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %w", a.store.Name, err)
	}

	now := time.Now().UTC()
	var items []model.ScrapedItem
	doc.Find(a.selectors.Item).Each(func(_ int, card *goquery.Selection) {
		item, ok := a.extract(card, now)
		if ok {
			items = append(items, item)
		}
	})
	return items, nil
}

func (a *HTMLListing) extract(card *goquery.Selection, now time.Time) (model.ScrapedItem, bool) {
	name := strings.TrimSpace(card.Find(a.selectors.Name).First().Text())
	priceText := strings.TrimSpace(card.Find(a.selectors.Price).First().Text())
	if name == "" || priceText == "" {
		return model.ScrapedItem{}, false
	}

	price, err := parsePrice(priceText)
	if err != nil {
		return model.ScrapedItem{}, false
	}

	lowered := strings.ToLower(card.Text())
	item := model.ScrapedItem{
		Name:        name,
		Price:       price,
		IsAvailable: !strings.Contains(lowered, "out of stock"),
		IsOrganic:   strings.Contains(lowered, "organic"),
		ScrapedAt:   now,
	}

	if origText := strings.TrimSpace(card.Find(a.selectors.OriginalPrice).First().Text()); origText != "" {
		if orig, err := parsePrice(origText); err == nil && orig > price {
			item.OriginalPrice = &orig
			item.IsDiscounted = true
		}
	}

	if pack := strings.TrimSpace(card.Find(a.selectors.PackInfo).First().Text()); pack != "" {
		if size, unit, ok := splitMeasure(pack); ok {
			item.PackSize = size
			item.PackUnit = unit
			item.PricePerKg = PricePerKg(item.Price, size, unit)
		}
	}

	if src, ok := card.Find(a.selectors.Image).First().Attr("src"); ok {
		item.ImageURL = src
	}
	if href, ok := card.Find(a.selectors.Link).First().Attr("href"); ok {
		item.ProductURL = href
	}

	return item, true
}
