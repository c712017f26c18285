// Package ledger maintains the current-price snapshot and the append-only
// price history.
package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"price_tracker/internal/model"
	"price_tracker/internal/storage"
)

// changeBaseline is how far back the previous price must lie before it
// counts as a comparison point for period-over-period change.
const changeBaseline = 24 * time.Hour

// Ledger turns reconciled scraped items into snapshot and history rows.
type Ledger struct {
	store storage.Storage
}

// New creates a Ledger on top of the given storage.
func New(store storage.Storage) *Ledger {
	return &Ledger{store: store}
}

// Upsert overwrites (or inserts) the CurrentPrice row for the pair and
// unconditionally appends a history record, in one transaction. The change
// percentage is derived against the newest history point older than the
// baseline before the new observation is written.
func (l *Ledger) Upsert(ctx context.Context, productID, storeID int64, item model.ScrapedItem) error {
	change, err := l.PriceChangePercent(ctx, productID, storeID, item.Price)
	if err != nil {
		return fmt.Errorf("derive price change: %w", err)
	}

	scrapedAt := item.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	cp := &model.CurrentPrice{
		ProductID:          productID,
		StoreID:            storeID,
		Price:              item.Price,
		OriginalPrice:      item.OriginalPrice,
		PricePerKg:         item.PricePerKg,
		PackSize:           item.PackSize,
		PackUnit:           item.PackUnit,
		IsAvailable:        item.IsAvailable,
		IsOrganic:          item.IsOrganic,
		IsDiscounted:       item.IsDiscounted,
		Brand:              item.Brand,
		ImageURL:           item.ImageURL,
		ProductURL:         item.ProductURL,
		PriceChangePercent: change,
		ScrapedAt:          scrapedAt,
	}
	if err := l.store.SaveObservation(ctx, cp); err != nil {
		return fmt.Errorf("save observation: %w", err)
	}
	return nil
}

// PriceChangePercent computes the change of current against the newest
// history record older than 24 hours, rounded to two decimal places.
// Returns 0 when no such record exists or its price is non-positive.
func (l *Ledger) PriceChangePercent(ctx context.Context, productID, storeID int64, current float64) (float64, error) {
	cutoff := time.Now().UTC().Add(-changeBaseline)
	prev, err := l.store.LatestHistoryBefore(ctx, productID, storeID, cutoff)
	if err != nil {
		return 0, err
	}
	if prev == nil || prev.Price <= 0 {
		return 0, nil
	}
	return round2((current - prev.Price) / prev.Price * 100), nil
}

// CurrentPrices returns the live snapshot rows, optionally filtered to one
// product (productID 0 means all).
func (l *Ledger) CurrentPrices(ctx context.Context, productID int64) ([]model.CurrentPrice, error) {
	return l.store.ListCurrentPrices(ctx, productID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
