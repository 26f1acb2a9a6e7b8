package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/partscope/partscope/internal/config"
	"github.com/sirupsen/logrus"
)

// looseBrandPageLimit caps how many brand-name pages the loose third pass visits
const looseBrandPageLimit = 3

var (
	// Direct product links: a three-letter brand code prefix before a model
	// number, e.g. /wpl-wp3149400.html
	directProductPattern = regexp.MustCompile(`/[a-z]{3}-[a-zA-Z0-9]+\.html`)

	// Brand landing pages such as /whirlpool.html
	brandPagePattern = regexp.MustCompile(`/[a-z\-]+\.html$`)

	// Loosest product shape: word-hyphen-alphanumeric before .html
	looseProductPattern = regexp.MustCompile(`[a-zA-Z]{2,}-[a-zA-Z0-9]+\.html`)
)

// Brand slugs worth recursing into during the loose pass
var knownBrandSlugs = []string{"whirlpool", "ge", "lg", "samsung", "kenmore"}

// isProductLink reports whether a href points at a product detail page
// rather than another category or listing page
func isProductLink(href string) bool {
	lower := strings.ToLower(href)
	matched := strings.Contains(lower, "wpl-") ||
		strings.Contains(lower, "wpw") ||
		strings.Contains(lower, "/w10") ||
		strings.Contains(lower, "/w11") ||
		directProductPattern.MatchString(href)
	if !matched {
		return false
	}
	return !strings.Contains(href, "category") && !strings.Contains(href, "parts")
}

// looksLikeProductCode is the substring-only variant used on brand pages,
// where listing-shaped links have already been filtered out by navigation
func looksLikeProductCode(href string) bool {
	lower := strings.ToLower(href)
	return strings.Contains(lower, "wpl-") ||
		strings.Contains(lower, "wpw") ||
		strings.Contains(lower, "/w10") ||
		strings.Contains(lower, "/w11")
}

// Discoverer finds candidate product URLs on category and brand listing
// pages. The site's link structure is inconsistent across categories, so
// discovery degrades from direct product links to crawling one level into
// brand sub-pages.
type Discoverer struct {
	fetcher       PageFetcher
	base          *url.URL
	maxURLs       int
	maxBrandPages int
	log           *logrus.Logger
}

// NewDiscoverer creates a Discoverer resolving links against the base URL
func NewDiscoverer(cfg *config.Config, fetcher PageFetcher, log *logrus.Logger) (*Discoverer, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Hostname() == "" {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	return &Discoverer{
		fetcher:       fetcher,
		base:          base,
		maxURLs:       cfg.MaxDiscoveredURLs,
		maxBrandPages: cfg.MaxBrandPages,
		log:           log,
	}, nil
}

// Discover returns up to maxURLs deduplicated absolute product URLs found on
// a category page. Fetch failures yield an empty result; discovery is never
// fatal to the overall cycle.
func (d *Discoverer) Discover(ctx context.Context, categoryURL string) []string {
	d.log.Infof("Discovering products from: %s", categoryURL)

	html, err := d.fetcher.Fetch(ctx, categoryURL)
	if err != nil {
		d.log.Errorf("Discovery failed for %s: %v", categoryURL, err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		d.log.Errorf("Discovery failed to parse %s: %v", categoryURL, err)
		return nil
	}

	hrefs := collectHrefs(doc)
	acc := &urlAccumulator{seen: make(map[string]bool), resolve: d.resolve}

	// Pass 1: direct product links on the category page
	for _, href := range hrefs {
		if isProductLink(href) {
			acc.add(href)
		}
	}

	// Pass 2: no direct links, so crawl brand sub-pages under the category path
	if acc.len() == 0 {
		d.discoverViaBrandPages(ctx, categoryURL, hrefs, acc)
	}

	// Pass 3: brand-name landing pages anywhere on the category page
	d.discoverViaLooseBrandPages(ctx, hrefs, acc)

	urls := acc.urls
	if len(urls) > d.maxURLs {
		urls = urls[:d.maxURLs]
	}

	d.log.Infof("Found %d unique product URLs", len(urls))
	return urls
}

// urlAccumulator collects resolved absolute URLs, dropping duplicates while
// preserving insertion order
type urlAccumulator struct {
	seen    map[string]bool
	urls    []string
	resolve func(string) string
}

func (a *urlAccumulator) add(href string) {
	abs := a.resolve(href)
	if abs == "" || a.seen[abs] {
		return
	}
	a.seen[abs] = true
	a.urls = append(a.urls, abs)
}

func (a *urlAccumulator) len() int {
	return len(a.urls)
}

// discoverViaBrandPages visits brand sub-pages under the category path
// (e.g. /oven-parts/whirlpool.html under /oven-parts.html), collecting
// product-code links until the overall cap is reached
func (d *Discoverer) discoverViaBrandPages(ctx context.Context, categoryURL string, hrefs []string, acc *urlAccumulator) {
	segments := strings.Split(categoryURL, "/")
	categoryPath := strings.TrimSuffix(segments[len(segments)-1], ".html")

	var brandLinks []string
	for _, href := range hrefs {
		if strings.Contains(href, "/"+categoryPath+"/") && strings.HasSuffix(href, ".html") {
			brandLinks = append(brandLinks, href)
		}
	}

	d.log.Infof("Found %d brand pages in %s", len(brandLinks), categoryPath)
	if len(brandLinks) > d.maxBrandPages {
		brandLinks = brandLinks[:d.maxBrandPages]
	}

	for _, brandLink := range brandLinks {
		brandURL := d.resolve(brandLink)
		if brandURL == "" {
			continue
		}

		d.log.Infof("Checking brand page: %s", brandURL)
		brandHrefs, err := d.fetchHrefs(ctx, brandURL)
		if err != nil {
			d.log.Errorf("Failed to process brand page %s: %v", brandLink, err)
			continue
		}

		for _, href := range brandHrefs {
			if looksLikeProductCode(href) {
				acc.add(href)
			}
		}

		if acc.len() >= d.maxURLs {
			break
		}
	}
}

// discoverViaLooseBrandPages recurses one level into brand landing pages,
// accepting any link shaped like a product code
func (d *Discoverer) discoverViaLooseBrandPages(ctx context.Context, hrefs []string, acc *urlAccumulator) {
	var brandLinks []string
	for _, href := range hrefs {
		if brandPagePattern.MatchString(href) {
			brandLinks = append(brandLinks, href)
		}
	}
	if len(brandLinks) > looseBrandPageLimit {
		brandLinks = brandLinks[:looseBrandPageLimit]
	}

	for _, brandLink := range brandLinks {
		if !containsKnownBrand(brandLink) {
			continue
		}

		brandURL := d.resolve(brandLink)
		if brandURL == "" {
			continue
		}

		d.log.Infof("Checking brand page: %s", brandURL)
		brandHrefs, err := d.fetchHrefs(ctx, brandURL)
		if err != nil {
			continue
		}

		for _, href := range brandHrefs {
			if looseProductPattern.MatchString(href) {
				acc.add(href)
			}
		}
	}
}

// fetchHrefs fetches a page and returns all anchor targets on it
func (d *Discoverer) fetchHrefs(ctx context.Context, pageURL string) ([]string, error) {
	html, err := d.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return collectHrefs(doc), nil
}

// resolve turns a href into an absolute URL against the base, returning ""
// for unusable links
func (d *Discoverer) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	abs, err := d.base.Parse(href)
	if err != nil {
		return ""
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

// collectHrefs returns every anchor target in document order
func collectHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}

func containsKnownBrand(href string) bool {
	lower := strings.ToLower(href)
	for _, brand := range knownBrandSlugs {
		if strings.Contains(lower, brand) {
			return true
		}
	}
	return false
}
