package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/partscope/partscope/internal/config"
	"github.com/partscope/partscope/internal/metrics"
	"github.com/sirupsen/logrus"
)

// retryBackoffBase is the exponential backoff base wait (doubled per attempt)
const retryBackoffBase = 2 * time.Second

const (
	bodyCtxKey   = "response_body"
	statusCtxKey = "response_status"
)

// Fetcher performs rate-limited, retried HTTP GETs against the target site.
// All requests share one colly collector, so its parallelism limit acts as
// the process-wide concurrency gate for discovery and product fetches alike.
type Fetcher struct {
	collector  *colly.Collector
	baseHost   string
	maxRetries int
	minWait    time.Duration
	maxWait    time.Duration
	tracker    *metrics.Tracker
	log        *logrus.Logger
}

// NewFetcher creates a Fetcher bound to the configured base host
func NewFetcher(cfg *config.Config, tracker *metrics.Tracker, log *logrus.Logger) (*Fetcher, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Hostname() == "" {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	f := &Fetcher{
		baseHost:   base.Hostname(),
		maxRetries: cfg.MaxRetries,
		minWait:    time.Duration(cfg.RetryMinWaitMs) * time.Millisecond,
		maxWait:    time.Duration(cfg.RetryMaxWaitMs) * time.Millisecond,
		tracker:    tracker,
		log:        log,
	}

	if err := f.setupColly(cfg); err != nil {
		return nil, err
	}
	return f, nil
}

// setupColly configures the shared collector with the concurrency gate,
// browser-like headers and response capture callbacks
func (f *Fetcher) setupColly(cfg *config.Config) error {
	f.collector = colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	)

	f.collector.SetRequestTimeout(time.Duration(cfg.RequestTimeoutMs) * time.Millisecond)

	// One limit rule shared by every fetch, category and product alike
	if err := f.collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.MaxConcurrentRequests,
	}); err != nil {
		return fmt.Errorf("failed to configure request limit: %w", err)
	}

	f.collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	f.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(bodyCtxKey, string(r.Body))
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			r.Ctx.Put(statusCtxKey, strconv.Itoa(r.StatusCode))
		}
	})

	return nil
}

// Fetch retrieves a page as HTML text, retrying transient failures with
// jittered exponential backoff. It returns a *FetchError once all attempts
// are exhausted. The URL must be absolute and on the configured base host.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := f.validateURL(pageURL); err != nil {
		return "", err
	}

	pageType := classifyPageType(pageURL)

	var lastErr error
	lastStatus := 0

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			if !sleepContext(ctx, f.backoffWait(attempt-1)) {
				return "", ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		cctx := colly.NewContext()
		err := f.collector.Request("GET", pageURL, nil, cctx, nil)
		if err == nil {
			if body, ok := cctx.GetAny(bodyCtxKey).(string); ok {
				f.tracker.RecordFetch(pageType, true)
				return body, nil
			}
			err = fmt.Errorf("empty response")
		}

		lastErr = err
		if s := cctx.Get(statusCtxKey); s != "" {
			lastStatus, _ = strconv.Atoi(s)
		}
		f.log.Warnf("Fetch attempt %d/%d failed for %s: %v", attempt+1, f.maxRetries, pageURL, err)
	}

	f.tracker.RecordFetch(pageType, false)

	kind := FetchErrNetwork
	if lastStatus >= 300 {
		kind = FetchErrHTTPStatus
	}
	return "", &FetchError{Kind: kind, URL: pageURL, Status: lastStatus, Err: lastErr}
}

// validateURL requires an absolute http(s) URL on the configured host
func (f *Fetcher) validateURL(pageURL string) error {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", pageURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q for %s", parsed.Scheme, pageURL)
	}
	if !strings.EqualFold(parsed.Hostname(), f.baseHost) {
		return fmt.Errorf("%w: %s", ErrOffsiteURL, pageURL)
	}
	return nil
}

// backoffWait computes the wait before retry number attempt+1:
// min(maxWait, base * 2^attempt) clamped below by minWait, plus jitter
func (f *Fetcher) backoffWait(attempt int) time.Duration {
	wait := retryBackoffBase * time.Duration(1<<uint(attempt))
	if wait > f.maxWait {
		wait = f.maxWait
	}
	if wait < f.minWait {
		wait = f.minWait
	}
	jitter := time.Duration(rand.Int63n(int64(wait)/10 + 1))
	return wait + jitter
}

// sleepContext sleeps for d, returning false if the context is cancelled first
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// classifyPageType labels a URL for fetch metrics
func classifyPageType(pageURL string) string {
	if isProductLink(pageURL) {
		return "product"
	}
	return "listing"
}
