// Package model defines the domain types used across the application.
package model

import "time"

// StoreStatus is the operational state of a store.
type StoreStatus string

// Store states. A store rests at idle, moves to scraping while a
// collection attempt is in flight, and lands on offline when the attempt
// fails. Online is reserved for adapters that report reachable-but-empty
// separately from a successful sweep.
const (
	StatusIdle     StoreStatus = "idle"
	StatusScraping StoreStatus = "scraping"
	StatusOnline   StoreStatus = "online"
	StatusOffline  StoreStatus = "offline"
)

// Store represents one external price source with its own adapter.
type Store struct {
	ID            int64
	Name          string
	URL           string
	Type          string
	ScraperRef    string
	IsActive      bool
	Status        StoreStatus
	LastScraped   *time.Time
	IntervalHours int
	CreatedAt     time.Time
}

// Product is a catalog entry that scraped items are reconciled against.
// Keywords are matched case-insensitively against scraped names.
type Product struct {
	ID        int64
	Name      string
	Category  string
	Keywords  []string
	IsActive  bool
	CreatedAt time.Time
}

// ScrapedItem is one raw product listing produced by a store adapter.
// It is consumed by the reconciliation pipeline and never persisted as-is.
type ScrapedItem struct {
	Name          string
	Brand         string
	Price         float64
	OriginalPrice *float64
	PricePerKg    *float64
	PackSize      string
	PackUnit      string
	IsAvailable   bool
	IsOrganic     bool
	IsDiscounted  bool
	ImageURL      string
	ProductURL    string
	ScrapedAt     time.Time
}

// CurrentPrice is the latest snapshot for a (product, store) pair.
// At most one row exists per pair; it is overwritten on each successful
// reconciliation.
type CurrentPrice struct {
	ID                 int64
	ProductID          int64
	StoreID            int64
	Price              float64
	OriginalPrice      *float64
	PricePerKg         *float64
	PackSize           string
	PackUnit           string
	IsAvailable        bool
	IsOrganic          bool
	IsDiscounted       bool
	Brand              string
	ImageURL           string
	ProductURL         string
	PriceChangePercent float64
	ScrapedAt          time.Time
}

// PriceHistoryRecord is one append-only observation for a (product, store)
// pair. Records are never mutated or deleted; they are the sole input for
// trend queries.
type PriceHistoryRecord struct {
	ID          int64
	ProductID   int64
	StoreID     int64
	Price       float64
	IsAvailable bool
	RecordedAt  time.Time
}
