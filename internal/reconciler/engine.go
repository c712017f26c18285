// Package reconciler matches raw scraped items against the product catalog.
package reconciler

import (
	"strings"

	"price_tracker/internal/model"
)

// Catalog is an in-memory snapshot of the active product catalog, built once
// per reconciliation pass. Keywords are lowercased up front so matching does
// not rescan the catalog table per item.
type Catalog struct {
	products []model.Product
	keywords [][]string
}

// NewCatalog builds a matching snapshot from products. The slice order is
// the tie-break: when several products match, the earliest wins, so callers
// must pass products in stable (insertion) order.
func NewCatalog(products []model.Product) *Catalog {
	keywords := make([][]string, len(products))
	for i, p := range products {
		lowered := make([]string, 0, len(p.Keywords))
		for _, k := range p.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				lowered = append(lowered, k)
			}
		}
		keywords[i] = lowered
	}
	return &Catalog{products: products, keywords: keywords}
}

// Len returns the number of products in the snapshot.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Match returns the first catalog product with a keyword contained in the
// scraped name (case-insensitive substring), or nil when nothing matches.
func (c *Catalog) Match(scrapedName string) *model.Product {
	name := strings.ToLower(scrapedName)
	for i := range c.products {
		for _, k := range c.keywords[i] {
			if strings.Contains(name, k) {
				return &c.products[i]
			}
		}
	}
	return nil
}

// Valid reports whether a scraped item is structurally usable: a non-empty
// name and a positive price. Invalid items are dropped, not errors.
func Valid(item model.ScrapedItem) bool {
	return strings.TrimSpace(item.Name) != "" && item.Price > 0
}
