// Package tracker manages the operational status lifecycle of stores.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"price_tracker/internal/model"
	"price_tracker/internal/storage"
)

// Tracker records store status transitions around scrape runs.
type Tracker struct {
	store  storage.Storage
	logger *slog.Logger
}

// New creates a Tracker.
func New(store storage.Storage, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// MarkScraping flags a store as having a scrape in flight.
func (t *Tracker) MarkScraping(ctx context.Context, storeID int64) error {
	if err := t.store.UpdateStoreStatus(ctx, storeID, model.StatusScraping); err != nil {
		return fmt.Errorf("mark scraping: %w", err)
	}
	return nil
}

// MarkScraped records a successful run: the store returns to idle and its
// last-scraped timestamp moves to at.
func (t *Tracker) MarkScraped(ctx context.Context, storeID int64, at time.Time) error {
	if err := t.store.MarkStoreScraped(ctx, storeID, at); err != nil {
		return fmt.Errorf("mark scraped: %w", err)
	}
	return nil
}

// MarkOffline records a failed run. The last-scraped timestamp is left
// untouched so the store stays due for the next cycle.
func (t *Tracker) MarkOffline(ctx context.Context, storeID int64) error {
	if err := t.store.UpdateStoreStatus(ctx, storeID, model.StatusOffline); err != nil {
		return fmt.Errorf("mark offline: %w", err)
	}
	return nil
}

// Reset returns every store stuck in the scraping state to idle, for use on
// startup and on operator stop. Returns how many stores were reset.
func (t *Tracker) Reset(ctx context.Context) (int64, error) {
	n, err := t.store.ResetScrapingStores(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset stores: %w", err)
	}
	if n > 0 {
		t.logger.Info("reset stores stuck in scraping state", "count", n)
	}
	return n, nil
}

// Summary is a per-status store count plus the individual store rows, used
// by the operator status view.
type Summary struct {
	Stores   []model.Store
	ByStatus map[model.StoreStatus]int
}

// Summarize loads all stores and tallies them by status.
func (t *Tracker) Summarize(ctx context.Context) (*Summary, error) {
	stores, err := t.store.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}

	byStatus := make(map[model.StoreStatus]int)
	for _, st := range stores {
		byStatus[st.Status]++
	}
	return &Summary{Stores: stores, ByStatus: byStatus}, nil
}
