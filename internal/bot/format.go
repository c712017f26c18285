package bot

import (
	"fmt"
	"sort"
	"strings"

	"price_tracker/internal/ledger"
	"price_tracker/internal/model"
	"price_tracker/internal/orchestrator"
	"price_tracker/internal/tracker"
)

const (
	statusActive = "active"
	statusPaused = "paused"
)

// FormatScrapeResults formats the outcome of a scrape run, one line per
// store in alphabetical order.
func FormatScrapeResults(results map[string]orchestrator.Result) string {
	if len(results) == 0 {
		return "No active stores to scrape."
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Scrape finished:\n")
	for _, name := range names {
		res := results[name]
		if res.Err != nil {
			fmt.Fprintf(&b, "\n%s: FAILED (%v)\n", name, res.Err)
			continue
		}
		fmt.Fprintf(&b, "\n%s: %d items, %d saved, %d dropped\n",
			name, res.Items, res.Saved, res.Dropped)
	}
	return b.String()
}

// FormatScrapeResult formats the outcome of a single-store scrape.
func FormatScrapeResult(res *orchestrator.Result) string {
	if res.Err != nil {
		return fmt.Sprintf("%s: FAILED (%v)", res.StoreName, res.Err)
	}
	return fmt.Sprintf("%s: %d items, %d saved, %d dropped",
		res.StoreName, res.Items, res.Saved, res.Dropped)
}

// FormatStatus formats the store status summary.
func FormatStatus(sum *tracker.Summary) string {
	if len(sum.Stores) == 0 {
		return "No stores configured. Use /addstore to add one."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stores: %d total", len(sum.Stores))
	for _, status := range []model.StoreStatus{
		model.StatusIdle, model.StatusScraping, model.StatusOnline, model.StatusOffline,
	} {
		if n := sum.ByStatus[status]; n > 0 {
			fmt.Fprintf(&b, ", %d %s", n, status)
		}
	}
	b.WriteString("\n")

	for _, st := range sum.Stores {
		fmt.Fprintf(&b, "\n#%d %s [%s]", st.ID, st.Name, st.Status)
		if !st.IsActive {
			b.WriteString(" (paused)")
		}
		if st.LastScraped != nil {
			fmt.Fprintf(&b, "\n   last scraped: %s", st.LastScraped.Format("2006-01-02 15:04 UTC"))
		} else {
			b.WriteString("\n   never scraped")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatStoreList formats the store roster for display.
func FormatStoreList(stores []model.Store) string {
	if len(stores) == 0 {
		return "No stores configured. Use /addstore <name> <url> <adapter> to add one."
	}

	var b strings.Builder
	b.WriteString("Stores:\n")
	for _, st := range stores {
		state := statusActive
		if !st.IsActive {
			state = statusPaused
		}
		fmt.Fprintf(&b, "\n#%d %s  (every %d h) [%s]\n   %s via %s\n",
			st.ID, st.Name, st.IntervalHours, state, st.URL, st.ScraperRef)
	}
	return b.String()
}

// FormatSearchHits formats live search results grouped by store.
func FormatSearchHits(name string, hits []orchestrator.SearchHit) string {
	if len(hits) == 0 {
		return "No active stores to search."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", name)
	for _, hit := range hits {
		if hit.Err != nil {
			fmt.Fprintf(&b, "\n%s: FAILED (%v)\n", hit.StoreName, hit.Err)
			continue
		}
		if len(hit.Items) == 0 {
			fmt.Fprintf(&b, "\n%s: no matches\n", hit.StoreName)
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", hit.StoreName)
		for _, item := range hit.Items {
			fmt.Fprintf(&b, "  %s — %.2f", item.Name, item.Price)
			if !item.IsAvailable {
				b.WriteString(" (out of stock)")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatPrices formats current price snapshots. productNames and storeNames
// map IDs to display names.
func FormatPrices(prices []model.CurrentPrice, productNames map[int64]string, storeNames map[int64]string) string {
	if len(prices) == 0 {
		return "No prices recorded yet. Use /scrape to collect some."
	}

	var b strings.Builder
	b.WriteString("Current prices:\n")
	for _, cp := range prices {
		product := productNames[cp.ProductID]
		if product == "" {
			product = fmt.Sprintf("product #%d", cp.ProductID)
		}
		store := storeNames[cp.StoreID]
		if store == "" {
			store = fmt.Sprintf("store #%d", cp.StoreID)
		}

		fmt.Fprintf(&b, "\n%s @ %s: %.2f", product, store, cp.Price)
		if cp.PriceChangePercent != 0 {
			fmt.Fprintf(&b, " (%+.2f%%)", cp.PriceChangePercent)
		}
		if cp.IsDiscounted && cp.OriginalPrice != nil {
			fmt.Fprintf(&b, " [was %.2f]", *cp.OriginalPrice)
		}
		if !cp.IsAvailable {
			b.WriteString(" out of stock")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTrend formats a trend window with its summary.
func FormatTrend(productName string, points []ledger.TrendPoint, sum ledger.TrendSummary, storeNames map[int64]string) string {
	if len(points) == 0 {
		return fmt.Sprintf("No price history for %q in this window.", productName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Price trend for %s (%d points, %s):\n", productName, sum.DataPoints, sum.Direction)
	if sum.DataPoints >= 2 {
		fmt.Fprintf(&b, "change: %+.2f (%+.2f%%), min %.2f, avg %.2f, max %.2f\n",
			sum.ChangeAmount, sum.ChangePercent, sum.MinPrice, sum.AvgPrice, sum.MaxPrice)
	}

	for _, p := range points {
		store := storeNames[p.StoreID]
		if store == "" {
			store = fmt.Sprintf("store #%d", p.StoreID)
		}
		fmt.Fprintf(&b, "\n%s  %s: %.2f", p.Date, store, p.Price)
		if !p.IsAvailable {
			b.WriteString(" (out of stock)")
		}
	}
	return b.String()
}

// FormatProductList formats the tracked product catalog.
func FormatProductList(products []model.Product) string {
	if len(products) == 0 {
		return "The product catalog is empty. Use /addproduct to add one."
	}

	var b strings.Builder
	b.WriteString("Tracked products:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "\n#%d %s [%s]\n   keywords: %s\n",
			p.ID, p.Name, p.Category, strings.Join(p.Keywords, ", "))
	}
	return b.String()
}
