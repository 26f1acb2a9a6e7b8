package storage

import "time"

// Availability values stored for a product.
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOutOfStock = "out_of_stock"
	AvailabilityUnknown    = "unknown"
)

// ProductRecord is the result of extracting a single product detail page.
// SKU and Name are mandatory; a record missing either is never persisted.
type ProductRecord struct {
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Category     string    `json:"category"`
	Price        *float64  `json:"price"`
	Availability string    `json:"availability"`
	InStock      bool      `json:"in_stock"`
	URL          string    `json:"url"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// Product is the persisted row for a SKU, including the price history
// fields maintained by UpsertProduct.
type Product struct {
	SKU             string     `json:"sku"`
	Name            string     `json:"name"`
	Manufacturer    string     `json:"manufacturer,omitempty"`
	Category        string     `json:"category"`
	Price           *float64   `json:"price"`
	PreviousPrice   *float64   `json:"previous_price"`
	PriceChangeDate *time.Time `json:"price_change_date"`
	Availability    string     `json:"availability"`
	InStock         bool       `json:"in_stock"`
	URL             string     `json:"url"`
	ScrapedAt       time.Time  `json:"scraped_at"`
}

// ProductFilter narrows ListProducts results
type ProductFilter struct {
	Category string
	InStock  *bool
	Limit    int
}

// Stats summarizes the products table for the reporting API
type Stats struct {
	TotalProducts int `json:"total_products"`
	InStock       int `json:"in_stock"`
	Categories    int `json:"categories"`
}
