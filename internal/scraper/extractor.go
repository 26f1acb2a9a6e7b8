package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/partscope/partscope/internal/storage"
	"github.com/sirupsen/logrus"
)

// maxNameLength bounds the stored product name
const maxNameLength = 500

// defaultCategory is used when no breadcrumb category can be determined
const defaultCategory = "Parts"

var (
	// SKU is the last hyphenated alphanumeric path segment before .html,
	// e.g. /wpl-wp3149400.html -> wpl-wp3149400
	skuPattern = regexp.MustCompile(`/([a-zA-Z0-9\-]+)\.html`)

	// Known manufacturer tokens matched against the product name
	brandPattern = regexp.MustCompile(`(?i)\b(Whirlpool|GE|LG|Samsung|Kenmore|Maytag|Frigidaire|Bosch|KitchenAid)\b`)

	// Everything except digits and decimal points gets stripped from price text
	nonPriceChars = regexp.MustCompile(`[^\d.]`)
)

// Extractor turns a fetched page into at most one product record.
// Implementations must be pure: no I/O, nil result when the page does not
// describe a product.
type Extractor interface {
	Extract(html, sourceURL string) *storage.ProductRecord
}

// SiteExtractor extracts product records from the target site's detail pages
// using its known markup structure.
type SiteExtractor struct {
	log *logrus.Logger
	now func() time.Time
}

// NewSiteExtractor creates an extractor for the target site's markup
func NewSiteExtractor(log *logrus.Logger) *SiteExtractor {
	return &SiteExtractor{log: log, now: time.Now}
}

// Extract parses a product detail page. It returns nil when the mandatory
// fields (SKU from the URL, name from the first heading) are missing; the
// caller must treat nil as "nothing to persist", not as a failure.
func (e *SiteExtractor) Extract(html, sourceURL string) *storage.ProductRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.log.Warnf("Failed to parse HTML from %s: %v", sourceURL, err)
		return nil
	}

	// SKU comes from the URL path, e.g. /wpl-wp3149400.html
	skuMatch := skuPattern.FindStringSubmatch(sourceURL)
	if skuMatch == nil {
		return nil
	}
	sku := strings.ToUpper(skuMatch[1])

	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		return nil
	}

	// Manufacturer from brand tokens in the name, e.g. "WP3149400 Whirlpool Range..."
	manufacturer := brandPattern.FindString(name)

	var price *float64
	if el := doc.Find(".product-info-price .price").First(); el.Length() > 0 {
		cleaned := nonPriceChars.ReplaceAllString(strings.TrimSpace(el.Text()), "")
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			price = &v
		} else {
			e.log.Warnf("Could not parse price for %s: %q", sourceURL, el.Text())
		}
	}

	pageText := strings.ToLower(doc.Text())
	inStock := strings.Contains(pageText, "in stock") && !strings.Contains(pageText, "out of stock")
	availability := storage.AvailabilityOutOfStock
	if inStock {
		availability = storage.AvailabilityInStock
	}

	category := defaultCategory
	if links := doc.Find("div.breadcrumb a"); links.Length() >= 2 {
		if text := strings.TrimSpace(links.Eq(1).Text()); text != "" {
			category = text
		}
	}

	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}

	record := &storage.ProductRecord{
		SKU:          sku,
		Name:         name,
		Manufacturer: manufacturer,
		Category:     category,
		Price:        price,
		Availability: availability,
		InStock:      inStock,
		URL:          sourceURL,
		ScrapedAt:    e.now(),
	}

	e.log.Infof("Parsed: %s - %.50s", record.SKU, record.Name)
	return record
}
