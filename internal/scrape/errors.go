package scrape

import (
	"errors"
	"fmt"
)

// ErrNoProductURLs aborts the run before any worker starts: the sitemap
// tree yielded nothing to crawl, so the output file is left untouched.
var ErrNoProductURLs = errors.New("no product urls resolved")

// ErrInvalidStoreURL marks an unusable base URL.
var ErrInvalidStoreURL = errors.New("invalid store url")

// FetchError records a fetch that exhausted its retries. It is isolated
// to one URL and never aborts sibling workers.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the server answered with a non-2xx code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Retryable reports whether the status indicates a transient server
// condition worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
