package scrape

import (
	"context"
	"time"
)

// Resolver discovers product page URLs for a storefront.
type Resolver interface {
	Resolve(ctx context.Context, baseURL string) ([]string, error)
}

// Fetcher fetches a single URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Extractor turns a fetched page into a Result. Implementations must
// return a Result for every reachable page, degrading to partial
// records rather than dropping the product.
type Extractor interface {
	Extract(ctx context.Context, page Page) Result
}

// FallbackExtractor recovers fields from page text when structured data
// is absent or incomplete (the LLM path).
type FallbackExtractor interface {
	ExtractFields(ctx context.Context, pageText, pageURL string) (Fields, error)
}

// Pool runs the fetch+extract pipeline across the queued URLs and
// returns every result once the queue drains.
type Pool interface {
	Run(ctx context.Context) []Result
}

// TaskQueue feeds resolved URLs to the worker pool.
type TaskQueue interface {
	Enqueue(ctx context.Context, task Task) error
	Close()
}

// Task wraps a single product URL ready to process.
type Task struct {
	URL string
}

// Sink persists the final product set.
type Sink interface {
	Write(ctx context.Context, products []Product) error
}

// SnapshotSink optionally stores raw page bodies for offline debugging.
type SnapshotSink interface {
	SaveHTML(ctx context.Context, page Page) (string, error)
}

// RetryPolicy decides whether and when a failed fetch is reattempted.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// Hasher computes digests for snapshot filenames and dedup checks.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
