package scraper

import (
	"errors"
	"fmt"
)

// ErrOffsiteURL is returned for fetch requests outside the configured base host
var ErrOffsiteURL = errors.New("url is not on the configured host")

// FetchErrorKind distinguishes transport failures from HTTP status failures
type FetchErrorKind string

const (
	FetchErrNetwork    FetchErrorKind = "network"
	FetchErrHTTPStatus FetchErrorKind = "http_status"
)

// FetchError reports that a page could not be obtained after all retry
// attempts were exhausted.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchErrHTTPStatus {
		return fmt.Sprintf("fetch failed for %s: HTTP %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
