package scraper

import "sync"

// VisitedSet tracks URLs already processed within the lifetime of one crawl
// process. It is cleared only by restart; no cross-process guarantee.
type VisitedSet struct {
	mu   sync.RWMutex
	urls map[string]bool
}

// NewVisitedSet creates an empty visited-URL set
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{
		urls: make(map[string]bool),
	}
}

// ShouldVisit reports whether the URL has not been marked visited yet
func (v *VisitedSet) ShouldVisit(url string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return !v.urls[url]
}

// MarkVisited records the URL as processed for the rest of this run
func (v *VisitedSet) MarkVisited(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.urls[url] = true
}

// Len returns the number of URLs marked so far
func (v *VisitedSet) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.urls)
}
