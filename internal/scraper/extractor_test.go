package scraper

import (
	"strings"
	"testing"
	"time"

	"github.com/partscope/partscope/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *SiteExtractor {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	e := NewSiteExtractor(log)
	e.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

const productPageHTML = `<html><body>
<div class="breadcrumb"><a href="/">Home</a><a href="/oven-parts.html">Oven Parts</a></div>
<h1>WP3149400 Whirlpool Range Element</h1>
<div class="product-info-price"><span class="price">$24.99</span></div>
<p>In Stock - usually ships the same day</p>
</body></html>`

func TestExtractFullProductPage(t *testing.T) {
	e := newTestExtractor()

	rec := e.Extract(productPageHTML, "https://www.reliableparts.com/wp3149400.html")
	require.NotNil(t, rec)

	assert.Equal(t, "WP3149400", rec.SKU)
	assert.Equal(t, "WP3149400 Whirlpool Range Element", rec.Name)
	assert.Equal(t, "Whirlpool", rec.Manufacturer)
	assert.Equal(t, "Oven Parts", rec.Category)
	require.NotNil(t, rec.Price)
	assert.Equal(t, 24.99, *rec.Price)
	assert.True(t, rec.InStock)
	assert.Equal(t, storage.AvailabilityInStock, rec.Availability)
	assert.Equal(t, "https://www.reliableparts.com/wp3149400.html", rec.URL)
	assert.False(t, rec.ScrapedAt.IsZero())
}

func TestExtractNormalizesSKUToUppercase(t *testing.T) {
	e := newTestExtractor()

	rec := e.Extract(productPageHTML, "https://www.reliableparts.com/wpl-wp3149400.html")
	require.NotNil(t, rec)
	assert.Equal(t, "WPL-WP3149400", rec.SKU)
}

func TestExtractMissingHeadingReturnsNil(t *testing.T) {
	e := newTestExtractor()

	html := `<html><body><p>No heading here</p></body></html>`
	rec := e.Extract(html, "https://www.reliableparts.com/wp3149400.html")
	assert.Nil(t, rec)
}

func TestExtractUnparsableSKUReturnsNil(t *testing.T) {
	e := newTestExtractor()

	rec := e.Extract(productPageHTML, "https://www.reliableparts.com/category/ovens")
	assert.Nil(t, rec)
}

func TestExtractMalformedPriceLeavesPriceUnset(t *testing.T) {
	e := newTestExtractor()

	html := `<html><body>
<h1>WP3149400 Whirlpool Range Element</h1>
<div class="product-info-price"><span class="price">Call for pricing</span></div>
<p>In Stock</p>
</body></html>`

	rec := e.Extract(html, "https://www.reliableparts.com/wp3149400.html")
	require.NotNil(t, rec)
	assert.Nil(t, rec.Price)
	assert.True(t, rec.InStock)
}

func TestExtractMissingPriceElementLeavesPriceUnset(t *testing.T) {
	e := newTestExtractor()

	html := `<html><body><h1>WP3149400 Range Element</h1><p>In Stock</p></body></html>`
	rec := e.Extract(html, "https://www.reliableparts.com/wp3149400.html")
	require.NotNil(t, rec)
	assert.Nil(t, rec.Price)
	assert.Empty(t, rec.Manufacturer)
}

func TestExtractOutOfStock(t *testing.T) {
	e := newTestExtractor()

	html := `<html><body>
<h1>WP3149400 Whirlpool Range Element</h1>
<p>This item is currently Out of Stock. More coming soon, it will be in stock next week.</p>
</body></html>`

	rec := e.Extract(html, "https://www.reliableparts.com/wp3149400.html")
	require.NotNil(t, rec)
	assert.False(t, rec.InStock)
	assert.Equal(t, storage.AvailabilityOutOfStock, rec.Availability)
}

func TestExtractDefaultsCategoryWithoutBreadcrumb(t *testing.T) {
	e := newTestExtractor()

	html := `<html><body><h1>WP3149400 Range Element</h1></body></html>`
	rec := e.Extract(html, "https://www.reliableparts.com/wp3149400.html")
	require.NotNil(t, rec)
	assert.Equal(t, "Parts", rec.Category)
}

func TestExtractTruncatesLongNames(t *testing.T) {
	e := newTestExtractor()

	longName := strings.Repeat("x", 600)
	html := `<html><body><h1>` + longName + `</h1></body></html>`
	rec := e.Extract(html, "https://www.reliableparts.com/wp3149400.html")
	require.NotNil(t, rec)
	assert.Len(t, rec.Name, maxNameLength)
}

func TestExtractManufacturerCaseInsensitive(t *testing.T) {
	e := newTestExtractor()

	html := `<html><body><h1>DA29-00020B SAMSUNG Water Filter</h1></body></html>`
	rec := e.Extract(html, "https://www.reliableparts.com/da29-00020b.html")
	require.NotNil(t, rec)
	assert.Equal(t, "SAMSUNG", rec.Manufacturer)
}
