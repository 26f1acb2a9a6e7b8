package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func floatPtr(f float64) *float64 { return &f }

func testRecord(sku string, price *float64) *ProductRecord {
	return &ProductRecord{
		SKU:          sku,
		Name:         sku + " Range Element",
		Manufacturer: "Whirlpool",
		Category:     "Oven Parts",
		Price:        price,
		Availability: AvailabilityInStock,
		InStock:      true,
		URL:          "https://www.reliableparts.com/" + sku + ".html",
		ScrapedAt:    time.Now().UTC(),
	}
}

func TestUpsertInsertsNewProduct(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.UpsertProduct(testRecord("WP3149400", floatPtr(24.99))))

	p, err := s.GetProduct("WP3149400")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "WP3149400", p.SKU)
	assert.Equal(t, "WP3149400 Range Element", p.Name)
	assert.Equal(t, "Whirlpool", p.Manufacturer)
	assert.Equal(t, "Oven Parts", p.Category)
	require.NotNil(t, p.Price)
	assert.Equal(t, 24.99, *p.Price)
	assert.True(t, p.InStock)
	assert.Equal(t, AvailabilityInStock, p.Availability)

	// A fresh row has no price history
	assert.Nil(t, p.PreviousPrice)
	assert.Nil(t, p.PriceChangeDate)
}

func TestUpsertPriceChangeRecordsHistory(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.UpsertProduct(testRecord("X1", floatPtr(10.00))))
	require.NoError(t, s.UpsertProduct(testRecord("X1", floatPtr(12.50))))

	p, err := s.GetProduct("X1")
	require.NoError(t, err)
	require.NotNil(t, p)

	require.NotNil(t, p.Price)
	assert.Equal(t, 12.50, *p.Price)
	require.NotNil(t, p.PreviousPrice)
	assert.Equal(t, 10.00, *p.PreviousPrice)
	assert.NotNil(t, p.PriceChangeDate)
}

func TestUpsertUnchangedPriceKeepsHistory(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.UpsertProduct(testRecord("X1", floatPtr(10.00))))
	require.NoError(t, s.UpsertProduct(testRecord("X1", floatPtr(12.50))))

	before, err := s.GetProduct("X1")
	require.NoError(t, err)
	require.NotNil(t, before.PriceChangeDate)

	// Re-scraping the same price must not touch the history fields
	require.NoError(t, s.UpsertProduct(testRecord("X1", floatPtr(12.50))))

	after, err := s.GetProduct("X1")
	require.NoError(t, err)
	require.NotNil(t, after.PreviousPrice)
	assert.Equal(t, 10.00, *after.PreviousPrice)
	require.NotNil(t, after.PriceChangeDate)
	assert.Equal(t, *before.PriceChangeDate, *after.PriceChangeDate)
}

func TestUpsertPriceAppearingFromUnknown(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.UpsertProduct(testRecord("X2", nil)))
	require.NoError(t, s.UpsertProduct(testRecord("X2", floatPtr(5.99))))

	p, err := s.GetProduct("X2")
	require.NoError(t, err)
	require.NotNil(t, p)

	require.NotNil(t, p.Price)
	assert.Equal(t, 5.99, *p.Price)
	// NULL to value counts as a change, but there is no prior price to keep
	assert.Nil(t, p.PreviousPrice)
	assert.NotNil(t, p.PriceChangeDate)
}

func TestUpsertPriceDisappearing(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.UpsertProduct(testRecord("X3", floatPtr(8.25))))
	require.NoError(t, s.UpsertProduct(testRecord("X3", nil)))

	p, err := s.GetProduct("X3")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Nil(t, p.Price)
	require.NotNil(t, p.PreviousPrice)
	assert.Equal(t, 8.25, *p.PreviousPrice)
	assert.NotNil(t, p.PriceChangeDate)
}

func TestGetProductAbsentReturnsNil(t *testing.T) {
	s := newTestStorage(t)

	p, err := s.GetProduct("NOPE")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestListProductsFilters(t *testing.T) {
	s := newTestStorage(t)

	oven := testRecord("A1", floatPtr(1.00))
	require.NoError(t, s.UpsertProduct(oven))

	fan := testRecord("B1", floatPtr(2.00))
	fan.Category = "Fan Blades"
	require.NoError(t, s.UpsertProduct(fan))

	gone := testRecord("C1", floatPtr(3.00))
	gone.InStock = false
	gone.Availability = AvailabilityOutOfStock
	require.NoError(t, s.UpsertProduct(gone))

	all, err := s.ListProducts(ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byCategory, err := s.ListProducts(ProductFilter{Category: "Fan Blades"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "B1", byCategory[0].SKU)

	inStock := true
	stocked, err := s.ListProducts(ProductFilter{InStock: &inStock})
	require.NoError(t, err)
	assert.Len(t, stocked, 2)

	outOfStock := false
	missing, err := s.ListProducts(ProductFilter{InStock: &outOfStock})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "C1", missing[0].SKU)
}

func TestListProductsOrderAndLimit(t *testing.T) {
	s := newTestStorage(t)

	for _, sku := range []string{"C1", "A1", "B1"} {
		require.NoError(t, s.UpsertProduct(testRecord(sku, floatPtr(1.00))))
	}

	products, err := s.ListProducts(ProductFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "A1", products[0].SKU)
	assert.Equal(t, "B1", products[1].SKU)
}

func TestGetStats(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.UpsertProduct(testRecord("A1", floatPtr(1.00))))

	fan := testRecord("B1", floatPtr(2.00))
	fan.Category = "Fan Blades"
	fan.InStock = false
	fan.Availability = AvailabilityOutOfStock
	require.NoError(t, s.UpsertProduct(fan))

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 1, stats.InStock)
	assert.Equal(t, 2, stats.Categories)
}

func TestCountScrapedSince(t *testing.T) {
	s := newTestStorage(t)

	old := testRecord("OLD1", floatPtr(1.00))
	old.ScrapedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, s.UpsertProduct(old))

	fresh := testRecord("NEW1", floatPtr(2.00))
	require.NoError(t, s.UpsertProduct(fresh))

	count, err := s.CountScrapedSince(time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
