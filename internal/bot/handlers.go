package bot

import (
	"context"
	"fmt"
	"strings"

	"price_tracker/internal/ledger"
	"price_tracker/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Price Tracker Bot!

Track grocery prices across stores.

Quick start:
1. /addstore <name> <url> <adapter> — register a store
2. /scrape — collect prices from all stores
3. /prices — show the current snapshot

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Scraping:
/scrape — scrape all active stores
/scrape <store_id> — scrape one store
/stop — cancel in-flight scrapes
/status — store status summary
/search <name> — live product search across stores

Store management:
/stores — show all stores
/addstore <name> <url> <adapter> [interval_hours] — add a store
/pause <store_id> — exclude a store from scheduling
/resume <store_id> — include it again

Prices:
/prices — current prices for all products
/prices <product_id> — current prices for one product
/trend <product_id> [days] — price history (default 7 days)

Catalog:
/products — show tracked products
/addproduct <name> [| keyword1, keyword2] — add a product`)
}

func (b *Bot) handleScrape(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Scraping all active stores...")
		results, err := b.orch.ScrapeAll(ctx)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Scrape failed: %v", err))
			return
		}
		b.reply(chatID, FormatScrapeResults(results))
		return
	}

	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /scrape [store_id]")
		return
	}

	res, err := b.orch.ScrapeOne(ctx, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Scrape failed: %v", err))
		return
	}
	b.reply(chatID, FormatScrapeResult(res))
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	sum, err := b.tracker.Summarize(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatStatus(sum))
}

func (b *Bot) handleStop(ctx context.Context, chatID int64) {
	n, err := b.orch.Stop(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Stopped. %d store(s) reset to idle.", n))
}

func (b *Bot) handleStores(ctx context.Context, chatID int64) {
	stores, err := b.store.ListStores(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatStoreList(stores))
}

func (b *Bot) handleAddStore(ctx context.Context, chatID int64, args string) {
	sa, err := ParseStoreArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	if !b.registry.Known(sa.ScraperRef) {
		b.reply(chatID, fmt.Sprintf("Unknown adapter %q. Available: %s",
			sa.ScraperRef, strings.Join(b.registry.Refs(), ", ")))
		return
	}

	st := &model.Store{
		Name:          sa.Name,
		URL:           sa.URL,
		Type:          "grocery",
		ScraperRef:    sa.ScraperRef,
		IsActive:      true,
		IntervalHours: sa.IntervalHours,
	}
	if err := b.store.CreateStore(ctx, st); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save store: %v", err))
		return
	}

	b.reply(chatID, fmt.Sprintf("Store added!\n#%d %s (every %d h)\nURL: %s\nAdapter: %s",
		st.ID, st.Name, st.IntervalHours, st.URL, st.ScraperRef))
}

func (b *Bot) handlePause(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /pause <store_id>")
		return
	}

	st, err := b.store.GetStore(ctx, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Store #%d not found.", id))
		return
	}

	if err := b.store.SetStoreActive(ctx, id, false); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Store #%d \"%s\" paused.", id, st.Name))
}

func (b *Bot) handleResume(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /resume <store_id>")
		return
	}

	st, err := b.store.GetStore(ctx, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Store #%d not found.", id))
		return
	}

	if err := b.store.SetStoreActive(ctx, id, true); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Store #%d \"%s\" resumed.", id, st.Name))
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /search <product name>")
		return
	}

	hits, err := b.orch.Search(ctx, args)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Search failed: %v", err))
		return
	}
	b.reply(chatID, FormatSearchHits(args, hits))
}

func (b *Bot) handlePrices(ctx context.Context, chatID int64, args string) {
	var productID int64
	if args != "" {
		id, err := ParseIDArg(args)
		if err != nil {
			b.reply(chatID, "Usage: /prices [product_id]")
			return
		}
		productID = id
	}

	prices, err := b.ledger.CurrentPrices(ctx, productID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	productNames, storeNames, err := b.displayNames(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatPrices(prices, productNames, storeNames))
}

func (b *Bot) handleTrend(ctx context.Context, chatID int64, args string) {
	productID, days, err := ParseTrendArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	product, err := b.store.GetProduct(ctx, productID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Product #%d not found.", productID))
		return
	}

	points, err := b.ledger.Trend(ctx, productID, 0, days)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	_, storeNames, err := b.displayNames(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatTrend(product.Name, points, ledger.Summarize(points), storeNames))
}

func (b *Bot) handleProducts(ctx context.Context, chatID int64) {
	products, err := b.store.ListActiveProducts(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatProductList(products))
}

func (b *Bot) handleAddProduct(ctx context.Context, chatID int64, args string) {
	pa, err := ParseProductArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	p, err := b.orch.AddProduct(ctx, pa.Name, pa.Keywords)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to add product: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Product added!\n#%d %s [%s]\nkeywords: %s",
		p.ID, p.Name, p.Category, strings.Join(p.Keywords, ", ")))
}

// displayNames builds ID-to-name lookup maps for formatting.
func (b *Bot) displayNames(ctx context.Context) (map[int64]string, map[int64]string, error) {
	products, err := b.store.ListActiveProducts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list products: %w", err)
	}
	stores, err := b.store.ListStores(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list stores: %w", err)
	}

	productNames := make(map[int64]string, len(products))
	for _, p := range products {
		productNames[p.ID] = p.Name
	}
	storeNames := make(map[int64]string, len(stores))
	for _, st := range stores {
		storeNames[st.ID] = st.Name
	}
	return productNames, storeNames, nil
}
