package bot

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"price_tracker/internal/config"
	"price_tracker/internal/ledger"
	"price_tracker/internal/model"
	"price_tracker/internal/orchestrator"
	"price_tracker/internal/reconciler"
	"price_tracker/internal/scraper"
	"price_tracker/internal/storage"
	"price_tracker/internal/tracker"
)

// --- mocks ---

type sentMsg struct {
	ChatID int64
	Text   string
}

type mockAPI struct {
	mu   sync.Mutex
	sent []sentMsg
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.mu.Lock()
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Text})
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

type mockHTTPClient struct {
	body string
}

func (m *mockHTTPClient) Do(_ *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

// --- helpers ---

func newTestBot(t *testing.T, httpBody string) (*Bot, *mockAPI, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := scraper.DefaultRegistry()
	tr := tracker.New(store, log)
	led := ledger.New(store)
	orch := orchestrator.New(store, registry, &mockHTTPClient{body: httpBody},
		tr, led, reconciler.NewClassifier(), log, 5*time.Second)

	api := &mockAPI{}
	b := &Bot{
		api:      api,
		store:    store,
		cfg:      &config.Config{},
		orch:     orch,
		tracker:  tr,
		ledger:   led,
		registry: registry,
		log:      log,
	}
	return b, api, store
}

func seedStore(t *testing.T, store *storage.SQLite, name string) *model.Store {
	t.Helper()
	st := &model.Store{
		Name:       name,
		URL:        "https://" + name + ".example.com",
		Type:       "grocery",
		ScraperRef: scraper.RefStorefrontAPI,
		IsActive:   true,
	}
	if err := store.CreateStore(context.Background(), st); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return st
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("reply missing %q, got:\n%s", want, got)
	}
}

const cucumberListing = `[{"name": "Organic Cucumber", "price": 12.5, "pack_size": "1", "pack_unit": "kg", "in_stock": true, "organic": true}]`

// --- handler tests ---

func TestHandleStart(t *testing.T) {
	b, api, _ := newTestBot(t, "")
	b.handleStart(100)
	requireContains(t, api.lastText(), "Welcome to Price Tracker Bot")
}

func TestHandleHelp(t *testing.T) {
	b, api, _ := newTestBot(t, "")
	b.handleHelp(100)
	requireContains(t, api.lastText(), "/scrape")
	requireContains(t, api.lastText(), "/trend")
}

func TestHandleScrape(t *testing.T) {
	ctx := context.Background()

	t.Run("bad args", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handleScrape(ctx, 100, "abc")
		requireContains(t, api.lastText(), "Usage: /scrape")
	})

	t.Run("unknown store", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handleScrape(ctx, 100, "999")
		requireContains(t, api.lastText(), "Scrape failed")
	})

	t.Run("single store", func(t *testing.T) {
		b, api, store := newTestBot(t, cucumberListing)
		seedStore(t, store, "greenmart")
		b.handleScrape(ctx, 100, "1")
		reply := api.lastText()
		requireContains(t, reply, "greenmart")
		requireContains(t, reply, "1 saved")
	})

	t.Run("all stores", func(t *testing.T) {
		b, api, store := newTestBot(t, cucumberListing)
		seedStore(t, store, "greenmart")
		seedStore(t, store, "freshmart")
		b.handleScrape(ctx, 100, "")
		reply := api.lastText()
		requireContains(t, reply, "Scrape finished")
		requireContains(t, reply, "greenmart")
		requireContains(t, reply, "freshmart")
	})
}

func TestHandleStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handleStatus(ctx, 100)
		requireContains(t, api.lastText(), "No stores configured")
	})

	t.Run("with stores", func(t *testing.T) {
		b, api, store := newTestBot(t, "")
		seedStore(t, store, "greenmart")
		st := seedStore(t, store, "freshmart")
		if err := store.UpdateStoreStatus(ctx, st.ID, model.StatusOffline); err != nil {
			t.Fatalf("set status: %v", err)
		}

		b.handleStatus(ctx, 100)
		reply := api.lastText()
		requireContains(t, reply, "2 total")
		requireContains(t, reply, "1 idle")
		requireContains(t, reply, "1 offline")
		requireContains(t, reply, "never scraped")
	})
}

func TestHandleStop(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t, "")
	st := seedStore(t, store, "greenmart")
	if err := store.UpdateStoreStatus(ctx, st.ID, model.StatusScraping); err != nil {
		t.Fatalf("set status: %v", err)
	}

	b.handleStop(ctx, 100)
	requireContains(t, api.lastText(), "1 store(s) reset")
}

func TestHandleAddStore(t *testing.T) {
	ctx := context.Background()

	t.Run("bad args", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handleAddStore(ctx, 100, "onlyname")
		requireContains(t, api.lastText(), "usage: /addstore")
	})

	t.Run("unknown adapter", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handleAddStore(ctx, 100, "greenmart https://greenmart.example.com playwright")
		requireContains(t, api.lastText(), "Unknown adapter")
		requireContains(t, api.lastText(), "storefront_api")
	})

	t.Run("success", func(t *testing.T) {
		b, api, store := newTestBot(t, "")
		b.handleAddStore(ctx, 100, "greenmart https://greenmart.example.com storefront_api 12")
		requireContains(t, api.lastText(), "Store added")
		requireContains(t, api.lastText(), "every 12 h")

		stores, err := store.ListStores(ctx)
		if err != nil {
			t.Fatalf("list stores: %v", err)
		}
		if len(stores) != 1 || stores[0].IntervalHours != 12 {
			t.Errorf("stored store wrong: %+v", stores)
		}
	})
}

func TestHandlePauseResume(t *testing.T) {
	ctx := context.Background()
	b, api, store := newTestBot(t, "")
	st := seedStore(t, store, "greenmart")

	b.handlePause(ctx, 100, "1")
	requireContains(t, api.lastText(), "paused")
	got, err := store.GetStore(ctx, st.ID)
	if err != nil {
		t.Fatalf("get store: %v", err)
	}
	if got.IsActive {
		t.Error("store still active after pause")
	}

	b.handleResume(ctx, 100, "1")
	requireContains(t, api.lastText(), "resumed")
	got, err = store.GetStore(ctx, st.ID)
	if err != nil {
		t.Fatalf("get store: %v", err)
	}
	if !got.IsActive {
		t.Error("store still paused after resume")
	}

	b.handlePause(ctx, 100, "999")
	requireContains(t, api.lastText(), "not found")
}

func TestHandleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("empty args", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handleSearch(ctx, 100, "")
		requireContains(t, api.lastText(), "Usage: /search")
	})

	t.Run("success", func(t *testing.T) {
		b, api, store := newTestBot(t, cucumberListing)
		seedStore(t, store, "greenmart")
		b.handleSearch(ctx, 100, "cucumber")
		reply := api.lastText()
		requireContains(t, reply, `Search results for "cucumber"`)
		requireContains(t, reply, "Organic Cucumber")
	})
}

func TestHandlePrices(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handlePrices(ctx, 100, "")
		requireContains(t, api.lastText(), "No prices recorded yet")
	})

	t.Run("after scrape", func(t *testing.T) {
		b, api, store := newTestBot(t, cucumberListing)
		seedStore(t, store, "greenmart")
		b.handleScrape(ctx, 100, "1")

		b.handlePrices(ctx, 100, "")
		reply := api.lastText()
		requireContains(t, reply, "Cucumbers @ greenmart")
		requireContains(t, reply, "12.50")
	})
}

func TestHandleTrend(t *testing.T) {
	ctx := context.Background()

	t.Run("bad args", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handleTrend(ctx, 100, "")
		requireContains(t, api.lastText(), "usage: /trend")
	})

	t.Run("unknown product", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handleTrend(ctx, 100, "9999")
		requireContains(t, api.lastText(), "not found")
	})

	t.Run("after scrape", func(t *testing.T) {
		b, api, store := newTestBot(t, cucumberListing)
		seedStore(t, store, "greenmart")
		b.handleScrape(ctx, 100, "1")

		products, err := store.ListActiveProducts(ctx)
		if err != nil {
			t.Fatalf("list products: %v", err)
		}
		var cucumbers *model.Product
		for _, p := range products {
			if p.Name == "Cucumbers" {
				cucumbers = &p
				break
			}
		}
		if cucumbers == nil {
			t.Fatal("catalog product Cucumbers not found")
		}

		b.handleTrend(ctx, 100, strconv.FormatInt(cucumbers.ID, 10)+" 7")
		reply := api.lastText()
		requireContains(t, reply, "Price trend for Cucumbers")
		requireContains(t, reply, "12.50")
	})
}

func TestHandleAddProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("bad args", func(t *testing.T) {
		b, api, _ := newTestBot(t, "")
		b.handleAddProduct(ctx, 100, "")
		requireContains(t, api.lastText(), "usage: /addproduct")
	})

	t.Run("with keywords", func(t *testing.T) {
		b, api, store := newTestBot(t, "")
		b.handleAddProduct(ctx, 100, "Romaine Lettuce | romaine, lettuce heart")
		reply := api.lastText()
		requireContains(t, reply, "Product added")
		requireContains(t, reply, "[B]")
		requireContains(t, reply, "romaine, lettuce heart")

		products, err := store.ListActiveProducts(ctx)
		if err != nil {
			t.Fatalf("list products: %v", err)
		}
		last := products[len(products)-1]
		if last.Name != "Romaine Lettuce" || len(last.Keywords) != 2 {
			t.Errorf("stored product wrong: %+v", last)
		}
	})
}

func TestHandleProducts(t *testing.T) {
	b, api, _ := newTestBot(t, "")
	b.handleProducts(context.Background(), 100)
	// The catalog ships pre-seeded.
	requireContains(t, api.lastText(), "Tracked products")
	requireContains(t, api.lastText(), "Cucumbers")
}
