package scraper

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/partscope/partscope/internal/config"
	"github.com/partscope/partscope/internal/metrics"
	"github.com/partscope/partscope/internal/storage"
	"github.com/sirupsen/logrus"
)

// PageFetcher retrieves a page as HTML text
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// URLDiscoverer finds candidate product URLs on a category page
type URLDiscoverer interface {
	Discover(ctx context.Context, categoryURL string) []string
}

// ProductStore persists extracted product records
type ProductStore interface {
	UpsertProduct(rec *storage.ProductRecord) error
	CountScrapedSince(t time.Time) (int, error)
}

// ScrapeCache is an optional shared store marking recently scraped URLs
// across restarts; implementations must degrade to no-ops when unavailable
type ScrapeCache interface {
	RecentlyScraped(ctx context.Context, url string) bool
	MarkScraped(ctx context.Context, url string)
}

// crawlState identifies the scheduler's position in its unending cycle
type crawlState int

const (
	stateDiscovering crawlState = iota
	stateScraping
	stateCategoryDelay
	statePostCycleCheck
	stateCycleSleep
	stateCooldown
)

func (s crawlState) String() string {
	switch s {
	case stateDiscovering:
		return "discovering"
	case stateScraping:
		return "scraping"
	case stateCategoryDelay:
		return "category_delay"
	case statePostCycleCheck:
		return "post_cycle_check"
	case stateCycleSleep:
		return "cycle_sleep"
	case stateCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// SchedulerDeps collects the collaborators driven by the scheduler
type SchedulerDeps struct {
	Fetcher    PageFetcher
	Extractor  Extractor
	Discoverer URLDiscoverer
	Visited    *VisitedSet
	Store      ProductStore
	Cache      ScrapeCache
	Tracker    *metrics.Tracker
	Log        *logrus.Logger
}

// Scheduler drives the unending crawl cycle over the configured categories
// as an explicit state machine. There is no terminal state; it runs until
// the context is cancelled.
type Scheduler struct {
	cfg        *config.Config
	fetcher    PageFetcher
	extractor  Extractor
	discoverer URLDiscoverer
	visited    *VisitedSet
	store      ProductStore
	cache      ScrapeCache
	tracker    *metrics.Tracker
	log        *logrus.Logger

	// injectable for tests
	sleep func(ctx context.Context, d time.Duration) bool
	now   func() time.Time

	state       crawlState
	categoryIdx int
	pending     []string
}

// NewScheduler creates a scheduler starting at the first configured category
func NewScheduler(cfg *config.Config, deps SchedulerDeps) *Scheduler {
	visited := deps.Visited
	if visited == nil {
		visited = NewVisitedSet()
	}
	return &Scheduler{
		cfg:        cfg,
		fetcher:    deps.Fetcher,
		extractor:  deps.Extractor,
		discoverer: deps.Discoverer,
		visited:    visited,
		store:      deps.Store,
		cache:      deps.Cache,
		tracker:    deps.Tracker,
		log:        deps.Log,
		sleep:      sleepContext,
		now:        time.Now,
		state:      stateDiscovering,
	}
}

// Run executes the crawl loop until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Infof("Scheduler starting: %d categories, %d max products each, cycle sleep %dm",
		len(s.cfg.Categories), s.cfg.MaxProductsPerCycle, s.cfg.CycleSleepMin)

	for ctx.Err() == nil {
		s.state = s.step(ctx)
	}

	s.log.Info("Scheduler stopped")
}

// step executes the current state and returns the next one. A panic inside a
// step is contained here and routes the machine into cooldown; the next cycle
// restarts from the first category.
func (s *Scheduler) step(ctx context.Context) (next crawlState) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("Cycle error in state %s: %v", s.state, r)
			s.tracker.IncrementCycleErrors()
			next = stateCooldown
		}
	}()

	switch s.state {
	case stateDiscovering:
		categoryURL := s.categoryURL(s.cfg.Categories[s.categoryIdx])
		s.pending = s.discoverer.Discover(ctx, categoryURL)
		s.tracker.IncrementDiscoveryRuns()
		return stateScraping

	case stateScraping:
		limit := s.cfg.MaxProductsPerCycle
		if len(s.pending) < limit {
			limit = len(s.pending)
		}
		for _, productURL := range s.pending[:limit] {
			if ctx.Err() != nil {
				break
			}
			s.scrapeProduct(ctx, productURL)
		}
		return stateCategoryDelay

	case stateCategoryDelay:
		s.sleep(ctx, time.Duration(s.cfg.InterCategoryDelaySec)*time.Second)
		s.categoryIdx++
		if s.categoryIdx >= len(s.cfg.Categories) {
			return statePostCycleCheck
		}
		return stateDiscovering

	case statePostCycleCheck:
		if count, err := s.store.CountScrapedSince(s.now().Add(-time.Hour)); err == nil {
			s.log.Infof("Products scraped in last hour: %d", count)
		} else {
			s.log.Warnf("Failed to count recent products: %v", err)
		}
		s.tracker.IncrementCyclesCompleted()
		return stateCycleSleep

	case stateCycleSleep:
		s.log.Infof("Cycle complete, waiting %d minutes", s.cfg.CycleSleepMin)
		s.sleep(ctx, time.Duration(s.cfg.CycleSleepMin)*time.Minute)
		s.categoryIdx = 0
		return stateDiscovering

	case stateCooldown:
		s.log.Infof("Cooling down %d minutes before restarting cycle", s.cfg.ErrorCooldownMin)
		s.sleep(ctx, time.Duration(s.cfg.ErrorCooldownMin)*time.Minute)
		s.categoryIdx = 0
		return stateDiscovering
	}

	return stateDiscovering
}

// scrapeProduct runs the per-URL pipeline: skip-if-visited, fetch, extract,
// persist, mark visited, politeness delay. Every failure is contained here;
// one broken page never aborts the rest of the category.
func (s *Scheduler) scrapeProduct(ctx context.Context, productURL string) {
	if !s.visited.ShouldVisit(productURL) {
		return
	}
	if s.cache != nil && s.cache.RecentlyScraped(ctx, productURL) {
		s.log.Debugf("Recently scraped, skipping: %s", productURL)
		s.visited.MarkVisited(productURL)
		return
	}

	s.log.Infof("Scraping: %s", productURL)

	html, err := s.fetcher.Fetch(ctx, productURL)
	if err != nil {
		s.log.Errorf("Scrape failed: %s - %v", productURL, err)
		return
	}

	record := s.extractor.Extract(html, productURL)
	if record == nil {
		// Nothing to persist; not an error
		return
	}
	s.tracker.IncrementProductsParsed()

	if err := s.store.UpsertProduct(record); err != nil {
		s.log.Errorf("DB save failed for %s: %v", record.SKU, err)
		s.tracker.IncrementSaveFailures()
	} else {
		s.log.Infof("Saved: %s", record.SKU)
		s.tracker.IncrementProductsSaved()
	}

	s.visited.MarkVisited(productURL)
	if s.cache != nil {
		s.cache.MarkScraped(ctx, productURL)
	}

	s.politenessDelay(ctx)
}

// politenessDelay pauses a uniform random duration between the configured
// min and max delays
func (s *Scheduler) politenessDelay(ctx context.Context) {
	minDelay := time.Duration(s.cfg.MinDelayMs) * time.Millisecond
	maxDelay := time.Duration(s.cfg.MaxDelayMs) * time.Millisecond
	delay := minDelay
	if maxDelay > minDelay {
		delay += time.Duration(rand.Int63n(int64(maxDelay - minDelay)))
	}
	s.sleep(ctx, delay)
}

// categoryURL joins a category path onto the configured base URL
func (s *Scheduler) categoryURL(categoryPath string) string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(categoryPath, "/")
}
