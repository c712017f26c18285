package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"price_tracker/internal/model"
	"price_tracker/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateStore inserts a new store and populates its ID and CreatedAt.
func (s *SQLite) CreateStore(ctx context.Context, store *model.Store) error {
	now := time.Now().UTC().Format(timeLayout)
	if store.Status == "" {
		store.Status = model.StatusIdle
	}
	if store.IntervalHours <= 0 {
		store.IntervalHours = 24
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stores (name, url, type, scraper_ref, is_active, status, interval_hours, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		store.Name, store.URL, store.Type, store.ScraperRef, boolToInt(store.IsActive),
		string(store.Status), store.IntervalHours, now,
	)
	if err != nil {
		return fmt.Errorf("insert store: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	store.ID = id
	store.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

const storeColumns = `id, name, url, type, scraper_ref, is_active, status, last_scraped, interval_hours, created_at`

// GetStore returns a single store by its ID.
func (s *SQLite) GetStore(ctx context.Context, id int64) (*model.Store, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM stores WHERE id = ?`, id,
	)
	return scanStore(row)
}

// ListStores returns all stores in insertion order.
func (s *SQLite) ListStores(ctx context.Context) ([]model.Store, error) {
	return s.queryStores(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY id`)
}

// ListActiveStores returns all stores with is_active set.
func (s *SQLite) ListActiveStores(ctx context.Context) ([]model.Store, error) {
	return s.queryStores(ctx, `SELECT `+storeColumns+` FROM stores WHERE is_active = 1 ORDER BY id`)
}

// ListDueStores returns active stores whose last scrape is older than their
// per-store interval, or that have never been scraped.
func (s *SQLite) ListDueStores(ctx context.Context) ([]model.Store, error) {
	now := time.Now().UTC().Format(timeLayout)
	return s.queryStores(ctx,
		`SELECT `+storeColumns+` FROM stores
		 WHERE is_active = 1
		   AND (last_scraped IS NULL
		        OR datetime(last_scraped, '+' || interval_hours || ' hours') <= datetime(?))
		 ORDER BY id`,
		now,
	)
}

func (s *SQLite) queryStores(ctx context.Context, query string, args ...any) ([]model.Store, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stores []model.Store
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, *st)
	}
	return stores, rows.Err()
}

// UpdateStoreStatus sets a store's operational status.
func (s *SQLite) UpdateStoreStatus(ctx context.Context, id int64, status model.StoreStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE stores SET status = ? WHERE id = ?`, string(status), id,
	)
	if err != nil {
		return fmt.Errorf("update store status: %w", err)
	}
	return nil
}

// MarkStoreScraped records a successful scrape: status back to idle and
// last_scraped set to the given time.
func (s *SQLite) MarkStoreScraped(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE stores SET status = ?, last_scraped = ? WHERE id = ?`,
		string(model.StatusIdle), at.UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("mark store scraped: %w", err)
	}
	return nil
}

// SetStoreActive toggles a store's active flag.
func (s *SQLite) SetStoreActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE stores SET is_active = ? WHERE id = ?`, boolToInt(active), id,
	)
	if err != nil {
		return fmt.Errorf("set store active: %w", err)
	}
	return nil
}

// ResetScrapingStores moves every store stuck in the scraping state back to
// idle and returns how many rows changed.
func (s *SQLite) ResetScrapingStores(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE stores SET status = ? WHERE status = ?`,
		string(model.StatusIdle), string(model.StatusScraping),
	)
	if err != nil {
		return 0, fmt.Errorf("reset scraping stores: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// CreateProduct inserts a new catalog product and populates its ID and CreatedAt.
func (s *SQLite) CreateProduct(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO products (name, category, keywords, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Category, joinKeywords(p.Keywords), boolToInt(p.IsActive), now,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetProduct returns a single catalog product by its ID.
func (s *SQLite) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, keywords, is_active, created_at FROM products WHERE id = ?`, id,
	)
	return scanProduct(row)
}

// ListActiveProducts returns all active catalog products in insertion order.
// The order is the reconciliation tie-break, so it must stay stable.
func (s *SQLite) ListActiveProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, keywords, is_active, created_at
		 FROM products WHERE is_active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// SaveObservation atomically overwrites (or inserts) the current price for a
// (product, store) pair and appends a history record with the same values.
func (s *SQLite) SaveObservation(ctx context.Context, cp *model.CurrentPrice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	scrapedAt := cp.ScrapedAt.UTC().Format(timeLayout)

	res, err := tx.ExecContext(ctx,
		`UPDATE current_prices
		 SET price = ?, original_price = ?, price_per_kg = ?, pack_size = ?, pack_unit = ?,
		     is_available = ?, is_organic = ?, is_discounted = ?, brand = ?, image_url = ?,
		     product_url = ?, price_change_percent = ?, scraped_at = ?
		 WHERE product_id = ? AND store_id = ?`,
		cp.Price, cp.OriginalPrice, cp.PricePerKg, cp.PackSize, cp.PackUnit,
		boolToInt(cp.IsAvailable), boolToInt(cp.IsOrganic), boolToInt(cp.IsDiscounted),
		cp.Brand, cp.ImageURL, cp.ProductURL, cp.PriceChangePercent, scrapedAt,
		cp.ProductID, cp.StoreID,
	)
	if err != nil {
		return fmt.Errorf("update current price: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		ins, err := tx.ExecContext(ctx,
			`INSERT INTO current_prices
			 (product_id, store_id, price, original_price, price_per_kg, pack_size, pack_unit,
			  is_available, is_organic, is_discounted, brand, image_url, product_url,
			  price_change_percent, scraped_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cp.ProductID, cp.StoreID, cp.Price, cp.OriginalPrice, cp.PricePerKg,
			cp.PackSize, cp.PackUnit, boolToInt(cp.IsAvailable), boolToInt(cp.IsOrganic),
			boolToInt(cp.IsDiscounted), cp.Brand, cp.ImageURL, cp.ProductURL,
			cp.PriceChangePercent, scrapedAt,
		)
		if err != nil {
			return fmt.Errorf("insert current price: %w", err)
		}
		id, err := ins.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		cp.ID = id
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO price_history (product_id, store_id, price, is_available, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		cp.ProductID, cp.StoreID, cp.Price, boolToInt(cp.IsAvailable), scrapedAt,
	); err != nil {
		return fmt.Errorf("append price history: %w", err)
	}

	return tx.Commit()
}

const currentPriceColumns = `id, product_id, store_id, price, original_price, price_per_kg,
	pack_size, pack_unit, is_available, is_organic, is_discounted, brand, image_url,
	product_url, price_change_percent, scraped_at`

// GetCurrentPrice returns the snapshot row for a (product, store) pair, or
// nil when none exists.
func (s *SQLite) GetCurrentPrice(ctx context.Context, productID, storeID int64) (*model.CurrentPrice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+currentPriceColumns+` FROM current_prices WHERE product_id = ? AND store_id = ?`,
		productID, storeID,
	)
	cp, err := scanCurrentPrice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return cp, err
}

// ListCurrentPrices returns current snapshots, optionally filtered to one
// product (productID 0 means all).
func (s *SQLite) ListCurrentPrices(ctx context.Context, productID int64) ([]model.CurrentPrice, error) {
	query := `SELECT ` + currentPriceColumns + ` FROM current_prices ORDER BY product_id, store_id`
	args := []any{}
	if productID != 0 {
		query = `SELECT ` + currentPriceColumns + ` FROM current_prices WHERE product_id = ? ORDER BY store_id`
		args = append(args, productID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query current prices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var prices []model.CurrentPrice
	for rows.Next() {
		cp, err := scanCurrentPrice(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, *cp)
	}
	return prices, rows.Err()
}

// LatestHistoryBefore returns the newest history record for a pair recorded
// strictly before cutoff, or nil when the pair has no such record.
func (s *SQLite) LatestHistoryBefore(ctx context.Context, productID, storeID int64, cutoff time.Time) (*model.PriceHistoryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, product_id, store_id, price, is_available, recorded_at
		 FROM price_history
		 WHERE product_id = ? AND store_id = ? AND recorded_at < ?
		 ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		productID, storeID, cutoff.UTC().Format(timeLayout),
	)
	rec, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// HistorySince returns history records for a product from since onward in
// ascending capture order, optionally filtered to one store (storeID 0 means
// all stores).
func (s *SQLite) HistorySince(ctx context.Context, productID, storeID int64, since time.Time) ([]model.PriceHistoryRecord, error) {
	query := `SELECT id, product_id, store_id, price, is_available, recorded_at
		 FROM price_history
		 WHERE product_id = ? AND recorded_at >= ?`
	args := []any{productID, since.UTC().Format(timeLayout)}
	if storeID != 0 {
		query += ` AND store_id = ?`
		args = append(args, storeID)
	}
	query += ` ORDER BY recorded_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.PriceHistoryRecord
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func joinKeywords(keywords []string) string {
	return strings.Join(keywords, ",")
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	var keywords []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.TrimSpace(k)
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

type scannable interface {
	Scan(dest ...any) error
}

func scanStore(row scannable) (*model.Store, error) {
	var st model.Store
	var isActive int
	var status string
	var lastScraped, created sql.NullString
	err := row.Scan(&st.ID, &st.Name, &st.URL, &st.Type, &st.ScraperRef,
		&isActive, &status, &lastScraped, &st.IntervalHours, &created)
	if err != nil {
		return nil, fmt.Errorf("scan store: %w", err)
	}
	st.IsActive = isActive == 1
	st.Status = model.StoreStatus(status)
	if lastScraped.Valid {
		t, _ := time.Parse(timeLayout, lastScraped.String)
		st.LastScraped = &t
	}
	if created.Valid {
		st.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &st, nil
}

func scanProduct(row scannable) (*model.Product, error) {
	var p model.Product
	var isActive int
	var keywords, created string
	err := row.Scan(&p.ID, &p.Name, &p.Category, &keywords, &isActive, &created)
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.IsActive = isActive == 1
	p.Keywords = splitKeywords(keywords)
	p.CreatedAt, _ = time.Parse(timeLayout, created)
	return &p, nil
}

func scanCurrentPrice(row scannable) (*model.CurrentPrice, error) {
	var cp model.CurrentPrice
	var isAvailable, isOrganic, isDiscounted int
	var originalPrice, pricePerKg sql.NullFloat64
	var scrapedAt string
	err := row.Scan(&cp.ID, &cp.ProductID, &cp.StoreID, &cp.Price, &originalPrice,
		&pricePerKg, &cp.PackSize, &cp.PackUnit, &isAvailable, &isOrganic,
		&isDiscounted, &cp.Brand, &cp.ImageURL, &cp.ProductURL,
		&cp.PriceChangePercent, &scrapedAt)
	if err != nil {
		return nil, fmt.Errorf("scan current price: %w", err)
	}
	cp.IsAvailable = isAvailable == 1
	cp.IsOrganic = isOrganic == 1
	cp.IsDiscounted = isDiscounted == 1
	if originalPrice.Valid {
		v := originalPrice.Float64
		cp.OriginalPrice = &v
	}
	if pricePerKg.Valid {
		v := pricePerKg.Float64
		cp.PricePerKg = &v
	}
	cp.ScrapedAt, _ = time.Parse(timeLayout, scrapedAt)
	return &cp, nil
}

func scanHistory(row scannable) (*model.PriceHistoryRecord, error) {
	var rec model.PriceHistoryRecord
	var isAvailable int
	var recordedAt string
	err := row.Scan(&rec.ID, &rec.ProductID, &rec.StoreID, &rec.Price, &isAvailable, &recordedAt)
	if err != nil {
		return nil, fmt.Errorf("scan price history: %w", err)
	}
	rec.IsAvailable = isAvailable == 1
	rec.RecordedAt, _ = time.Parse(timeLayout, recordedAt)
	return &rec, nil
}
