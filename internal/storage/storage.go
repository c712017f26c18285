// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"

	"price_tracker/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateStore(ctx context.Context, store *model.Store) error
	GetStore(ctx context.Context, id int64) (*model.Store, error)
	ListStores(ctx context.Context) ([]model.Store, error)
	ListActiveStores(ctx context.Context) ([]model.Store, error)
	ListDueStores(ctx context.Context) ([]model.Store, error)
	UpdateStoreStatus(ctx context.Context, id int64, status model.StoreStatus) error
	MarkStoreScraped(ctx context.Context, id int64, at time.Time) error
	SetStoreActive(ctx context.Context, id int64, active bool) error
	ResetScrapingStores(ctx context.Context) (int64, error)

	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListActiveProducts(ctx context.Context) ([]model.Product, error)

	SaveObservation(ctx context.Context, cp *model.CurrentPrice) error
	GetCurrentPrice(ctx context.Context, productID, storeID int64) (*model.CurrentPrice, error)
	ListCurrentPrices(ctx context.Context, productID int64) ([]model.CurrentPrice, error)
	LatestHistoryBefore(ctx context.Context, productID, storeID int64, cutoff time.Time) (*model.PriceHistoryRecord, error)
	HistorySince(ctx context.Context, productID, storeID int64, since time.Time) ([]model.PriceHistoryRecord, error)

	Close() error
}
