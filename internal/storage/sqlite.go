package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// maxListLimit caps the number of rows a single ListProducts call may return
const maxListLimit = 1000

// defaultListLimit applies when a filter does not specify a limit
const defaultListLimit = 100

// Storage handles all database operations
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance, opening/creating the DB and initializing schema
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		sku TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		manufacturer TEXT,
		category TEXT,
		price REAL,
		previous_price REAL,
		price_change_date TIMESTAMP,
		availability TEXT,
		in_stock BOOLEAN DEFAULT 0,
		url TEXT,
		scraped_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	CREATE INDEX IF NOT EXISTS idx_products_in_stock ON products(in_stock);
	CREATE INDEX IF NOT EXISTS idx_products_scraped_at ON products(scraped_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// UpsertProduct inserts a product row or updates the mutable fields of an
// existing one. When the incoming price differs from the stored price
// (including transitions to or from NULL), previous_price receives the prior
// stored value and price_change_date is refreshed; when the price is
// unchanged, both history fields are left untouched. The single statement is
// atomic, so a failed write leaves the row as it was.
func (s *Storage) UpsertProduct(rec *ProductRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO products (
			sku, name, manufacturer, category,
			price, availability, in_stock, url, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sku) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			availability = excluded.availability,
			in_stock = excluded.in_stock,
			scraped_at = excluded.scraped_at,
			previous_price = CASE
				WHEN products.price IS NOT excluded.price THEN products.price
				ELSE products.previous_price
			END,
			price_change_date = CASE
				WHEN products.price IS NOT excluded.price THEN CURRENT_TIMESTAMP
				ELSE products.price_change_date
			END
	`, rec.SKU, rec.Name, nullString(rec.Manufacturer), rec.Category,
		nullFloat(rec.Price), rec.Availability, rec.InStock, rec.URL, rec.ScrapedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", rec.SKU, err)
	}
	return nil
}

// GetProduct retrieves a product by SKU, returns nil if not found
func (s *Storage) GetProduct(sku string) (*Product, error) {
	row := s.db.QueryRow(`
		SELECT sku, name, manufacturer, category, price, previous_price,
		       price_change_date, availability, in_stock, url, scraped_at
		FROM products
		WHERE sku = ?
	`, sku)

	product, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// ListProducts returns products matching the filter, capped at 1000 rows
func (s *Storage) ListProducts(filter ProductFilter) ([]Product, error) {
	query := `
		SELECT sku, name, manufacturer, category, price, previous_price,
		       price_change_date, availability, in_stock, url, scraped_at
		FROM products
		WHERE 1=1`
	args := []interface{}{}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.InStock != nil {
		query += " AND in_stock = ?"
		args = append(args, *filter.InStock)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	query += " ORDER BY sku LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetStats returns aggregate counts over the products table
func (s *Storage) GetStats() (Stats, error) {
	var stats Stats

	if err := s.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&stats.TotalProducts); err != nil {
		return stats, fmt.Errorf("failed to count products: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM products WHERE in_stock = 1").Scan(&stats.InStock); err != nil {
		return stats, fmt.Errorf("failed to count in-stock products: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT category) FROM products").Scan(&stats.Categories); err != nil {
		return stats, fmt.Errorf("failed to count categories: %w", err)
	}

	return stats, nil
}

// CountScrapedSince returns the number of products scraped after the given time
func (s *Storage) CountScrapedSince(t time.Time) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM products WHERE scraped_at > ?", t).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent products: %w", err)
	}
	return count, nil
}

// Ping verifies database connectivity (used by the health endpoint)
func (s *Storage) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows for scanProduct
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (*Product, error) {
	var p Product
	var manufacturer sql.NullString
	var price, previousPrice sql.NullFloat64
	var priceChangeDate sql.NullTime

	err := row.Scan(&p.SKU, &p.Name, &manufacturer, &p.Category, &price,
		&previousPrice, &priceChangeDate, &p.Availability, &p.InStock,
		&p.URL, &p.ScrapedAt)
	if err != nil {
		return nil, err
	}

	if manufacturer.Valid {
		p.Manufacturer = manufacturer.String
	}
	if price.Valid {
		v := price.Float64
		p.Price = &v
	}
	if previousPrice.Valid {
		v := previousPrice.Float64
		p.PreviousPrice = &v
	}
	if priceChangeDate.Valid {
		t := priceChangeDate.Time
		p.PriceChangeDate = &t
	}

	return &p, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
