// Package orchestrator coordinates scrape runs across store adapters and
// feeds the results through reconciliation into the price ledger.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"price_tracker/internal/ledger"
	"price_tracker/internal/model"
	"price_tracker/internal/reconciler"
	"price_tracker/internal/scraper"
	"price_tracker/internal/storage"
	"price_tracker/internal/tracker"
)

var (
	// ErrStoreNotFound is returned when a scrape targets an unknown store ID.
	ErrStoreNotFound = errors.New("store not found")
	// ErrStoreInactive is returned when a scrape targets a paused store.
	ErrStoreInactive = errors.New("store is not active")
	// ErrScrapeInFlight is returned when a store already has a running scrape.
	ErrScrapeInFlight = errors.New("scrape already in flight")
)

// Result describes the outcome of one store's scrape run.
type Result struct {
	StoreID   int64
	StoreName string
	Items     int
	Saved     int
	Dropped   int
	Err       error
}

// Orchestrator fans scrape runs out to store adapters. One failing store
// never affects the others.
type Orchestrator struct {
	store      storage.Storage
	registry   *scraper.Registry
	client     scraper.HTTPClient
	tracker    *tracker.Tracker
	ledger     *ledger.Ledger
	classifier *reconciler.Classifier
	logger     *slog.Logger
	timeout    time.Duration

	mu      sync.Mutex
	cancels map[int64]context.CancelFunc
}

// New creates an Orchestrator. timeout bounds each store's adapter run.
func New(
	store storage.Storage,
	registry *scraper.Registry,
	client scraper.HTTPClient,
	tr *tracker.Tracker,
	led *ledger.Ledger,
	classifier *reconciler.Classifier,
	logger *slog.Logger,
	timeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		registry:   registry,
		client:     client,
		tracker:    tr,
		ledger:     led,
		classifier: classifier,
		logger:     logger,
		timeout:    timeout,
		cancels:    make(map[int64]context.CancelFunc),
	}
}

// ScrapeAll runs every active store concurrently and returns one Result per
// store, keyed by store name.
func (o *Orchestrator) ScrapeAll(ctx context.Context) (map[string]Result, error) {
	stores, err := o.store.ListActiveStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active stores: %w", err)
	}

	catalog, err := o.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[string]Result, len(stores))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, st := range stores {
		if !o.registry.Known(st.ScraperRef) {
			o.logger.Warn("skipping store with unknown adapter",
				"store", st.Name, "adapter", st.ScraperRef)
			continue
		}
		wg.Add(1)
		go func(st model.Store) {
			defer wg.Done()
			res := o.scrapeStore(ctx, st, catalog)
			mu.Lock()
			results[st.Name] = res
			mu.Unlock()
		}(st)
	}
	wg.Wait()

	return results, nil
}

// ScrapeOne runs a single store by ID.
func (o *Orchestrator) ScrapeOne(ctx context.Context, storeID int64) (*Result, error) {
	st, err := o.store.GetStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %d", ErrStoreNotFound, storeID)
	}
	if !st.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrStoreInactive, st.Name)
	}

	catalog, err := o.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	res := o.scrapeStore(ctx, *st, catalog)
	return &res, nil
}

// Stop cancels all in-flight scrapes and resets store statuses. Returns how
// many stores were moved out of the scraping state.
func (o *Orchestrator) Stop(ctx context.Context) (int64, error) {
	o.mu.Lock()
	for id, cancel := range o.cancels {
		cancel()
		delete(o.cancels, id)
	}
	o.mu.Unlock()

	return o.tracker.Reset(ctx)
}

// scrapeStore runs one store end to end: status transitions, the adapter
// call with its own timeout, and the reconciliation pipeline. Adapter
// panics are contained to the store's own result.
func (o *Orchestrator) scrapeStore(ctx context.Context, st model.Store, catalog *reconciler.Catalog) (res Result) {
	res = Result{StoreID: st.ID, StoreName: st.Name}

	runCtx, ok := o.acquire(ctx, st.ID)
	if !ok {
		res.Err = ErrScrapeInFlight
		return res
	}
	defer o.release(st.ID)

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("adapter panic: %v", r)
			o.logger.Error("adapter panicked", "store", st.Name, "panic", r)
			if err := o.tracker.MarkOffline(ctx, st.ID); err != nil {
				o.logger.Error("failed to mark store offline", "store", st.Name, "error", err)
			}
		}
	}()

	adapter, err := o.registry.Resolve(st, o.client)
	if err != nil {
		res.Err = err
		if markErr := o.tracker.MarkOffline(ctx, st.ID); markErr != nil {
			o.logger.Error("failed to mark store offline", "store", st.Name, "error", markErr)
		}
		return res
	}

	if err := o.tracker.MarkScraping(ctx, st.ID); err != nil {
		res.Err = err
		return res
	}
	o.logger.Info("scrape started", "store", st.Name)

	items, err := adapter.ScrapeAll(runCtx)
	if err != nil {
		res.Err = fmt.Errorf("scrape %s: %w", st.Name, err)
		o.logger.Error("scrape failed", "store", st.Name, "error", err)
		if markErr := o.tracker.MarkOffline(ctx, st.ID); markErr != nil {
			o.logger.Error("failed to mark store offline", "store", st.Name, "error", markErr)
		}
		return res
	}

	res.Items = len(items)
	res.Saved, res.Dropped = o.processItems(ctx, st, catalog, items)

	if err := o.tracker.MarkScraped(ctx, st.ID, time.Now().UTC()); err != nil {
		res.Err = err
		return res
	}
	o.logger.Info("scrape finished",
		"store", st.Name, "items", res.Items, "saved", res.Saved, "dropped", res.Dropped)
	return res
}

// processItems runs the reconciliation pipeline: invalid items and items
// matching no catalog product are dropped, the rest are written to the
// ledger. A single failing write only loses that one item.
func (o *Orchestrator) processItems(ctx context.Context, st model.Store, catalog *reconciler.Catalog, items []model.ScrapedItem) (saved, dropped int) {
	for _, item := range items {
		if !reconciler.Valid(item) {
			dropped++
			continue
		}
		product := catalog.Match(item.Name)
		if product == nil {
			dropped++
			o.logger.Debug("no catalog match", "store", st.Name, "item", item.Name)
			continue
		}
		if err := o.ledger.Upsert(ctx, product.ID, st.ID, item); err != nil {
			dropped++
			o.logger.Error("failed to save observation",
				"store", st.Name, "product", product.Name, "error", err)
			continue
		}
		saved++
	}
	return saved, dropped
}

func (o *Orchestrator) loadCatalog(ctx context.Context) (*reconciler.Catalog, error) {
	products, err := o.store.ListActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	for i := range products {
		if products[i].Category == "" {
			products[i].Category = o.classifier.Classify(products[i].Name)
		}
	}
	return reconciler.NewCatalog(products), nil
}

// acquire registers a cancellable per-store context bounded by the adapter
// timeout. Reports false when the store already has a run in flight.
func (o *Orchestrator) acquire(ctx context.Context, storeID int64) (context.Context, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.cancels[storeID]; exists {
		return nil, false
	}
	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	o.cancels[storeID] = cancel
	return runCtx, true
}

func (o *Orchestrator) release(storeID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cancel, exists := o.cancels[storeID]; exists {
		cancel()
		delete(o.cancels, storeID)
	}
}

// SearchHit is one store's live search outcome.
type SearchHit struct {
	StoreName string
	Items     []model.ScrapedItem
	Err       error
}

// Search queries every active store for a product name concurrently.
// Results are returned to the caller and never persisted.
func (o *Orchestrator) Search(ctx context.Context, name string) ([]SearchHit, error) {
	stores, err := o.store.ListActiveStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active stores: %w", err)
	}

	hits := make([]SearchHit, len(stores))
	var wg sync.WaitGroup

	for i, st := range stores {
		wg.Add(1)
		go func(i int, st model.Store) {
			defer wg.Done()
			hits[i] = o.searchStore(ctx, st, name)
		}(i, st)
	}
	wg.Wait()

	return hits, nil
}

func (o *Orchestrator) searchStore(ctx context.Context, st model.Store, name string) (hit SearchHit) {
	hit = SearchHit{StoreName: st.Name}

	defer func() {
		if r := recover(); r != nil {
			hit.Err = fmt.Errorf("adapter panic: %v", r)
		}
	}()

	adapter, err := o.registry.Resolve(st, o.client)
	if err != nil {
		hit.Err = err
		return hit
	}

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	items, err := adapter.SearchProduct(runCtx, name)
	if err != nil {
		hit.Err = err
		return hit
	}
	hit.Items = items
	return hit
}

// AddProduct creates a catalog product. The category is derived from the
// product name, and the lowercased name becomes the default match keyword.
func (o *Orchestrator) AddProduct(ctx context.Context, name string, keywords []string) (*model.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("product name is empty")
	}
	if len(keywords) == 0 {
		keywords = []string{strings.ToLower(name)}
	}

	p := &model.Product{
		Name:     name,
		Category: o.classifier.Classify(name),
		Keywords: keywords,
		IsActive: true,
	}
	if err := o.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}
