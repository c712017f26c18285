package scraper

import (
	"fmt"
	"sort"

	"price_tracker/internal/model"
)

// Built-in adapter identifiers referenced by Store.ScraperRef.
const (
	RefStorefrontAPI = "storefront_api"
	RefMerchantFeed  = "merchant_feed"
	RefHTMLListing   = "html_listing"
)

// Factory builds an adapter for one store.
type Factory func(store model.Store, client HTTPClient) Adapter

// Registry maps adapter identifiers to factories. Stores reference an
// identifier; resolution fails loudly for unknown ones.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a Registry with all built-in adapters registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(RefStorefrontAPI, func(store model.Store, client HTTPClient) Adapter {
		return NewStorefrontAPI(store, client)
	})
	r.Register(RefMerchantFeed, func(store model.Store, client HTTPClient) Adapter {
		return NewMerchantFeed(store, client)
	})
	r.Register(RefHTMLListing, func(store model.Store, client HTTPClient) Adapter {
		return NewHTMLListing(store, client, DefaultSelectors())
	})
	return r
}

// Register adds a factory under the given identifier, replacing any
// previous registration.
func (r *Registry) Register(ref string, f Factory) {
	r.factories[ref] = f
}

// Known reports whether an identifier has a registered factory.
func (r *Registry) Known(ref string) bool {
	_, ok := r.factories[ref]
	return ok
}

// Refs returns all registered identifiers in sorted order.
func (r *Registry) Refs() []string {
	refs := make([]string, 0, len(r.factories))
	for ref := range r.factories {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Resolve builds the adapter for a store, or fails for an unknown
// identifier.
func (r *Registry) Resolve(store model.Store, client HTTPClient) (Adapter, error) {
	f, ok := r.factories[store.ScraperRef]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for %q (store %s)", store.ScraperRef, store.Name)
	}
	return f(store, client), nil
}

// Validate checks that every store references a registered adapter. Run it
// at startup so configuration gaps surface before the first batch.
func (r *Registry) Validate(stores []model.Store) error {
	for _, st := range stores {
		if !r.Known(st.ScraperRef) {
			return fmt.Errorf("store %q references unknown adapter %q", st.Name, st.ScraperRef)
		}
	}
	return nil
}
