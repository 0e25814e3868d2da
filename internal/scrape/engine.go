package scrape

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dteproject/shopscraper/internal/metrics"
)

// ErrNoProducts means every attempted page failed outright; nothing is
// written so a prior output file survives intact.
var ErrNoProducts = errors.New("no products extracted")

// Engine orchestrates a full run: resolve the sitemap tree, feed the
// worker pool, aggregate results, and hand survivors to the sink.
type Engine struct {
	storeURL string
	resolver Resolver
	queue    TaskQueue
	pool     Pool
	sink     Sink
	clock    Clock
	idGen    IDGenerator
	recorder *metrics.Recorder
	logger   *zap.Logger
}

// NewEngine wires the run pipeline together.
func NewEngine(
	storeURL string,
	resolver Resolver,
	queue TaskQueue,
	pool Pool,
	sink Sink,
	clock Clock,
	idGen IDGenerator,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		storeURL: storeURL,
		resolver: resolver,
		queue:    queue,
		pool:     pool,
		sink:     sink,
		clock:    clock,
		idGen:    idGen,
		recorder: recorder,
		logger:   logger,
	}
}

// Run executes the crawl and returns the run summary. Per-URL failures
// are absorbed; the returned error is reserved for run-level outcomes
// (invalid store URL, zero URLs resolved, zero products, write failure).
func (e *Engine) Run(ctx context.Context) (summary Summary, err error) {
	summary = Summary{StoreURL: e.storeURL}
	if id, idErr := e.idGen.NewID(); idErr == nil {
		summary.RunID = id
	} else {
		e.logger.Warn("could not assign run id", zap.Error(idErr))
	}
	start := e.clock.Now()
	defer func() {
		summary.Duration = e.clock.Now().Sub(start)
	}()

	if err := ValidateStoreURL(e.storeURL); err != nil {
		return summary, err
	}

	urls, err := e.resolver.Resolve(ctx, e.storeURL)
	if err != nil {
		return summary, fmt.Errorf("resolve sitemap: %w", err)
	}
	summary.URLsResolved = len(urls)
	if len(urls) == 0 {
		return summary, ErrNoProductURLs
	}
	e.logger.Info("resolved product urls",
		zap.String("run_id", summary.RunID),
		zap.String("store", e.storeURL),
		zap.Int("count", len(urls)),
	)

	// Feed the queue concurrently with the pool so a bounded queue
	// never blocks the producer with no consumers running.
	enqueueErr := make(chan error, 1)
	go func() {
		defer e.queue.Close()
		for _, u := range urls {
			if err := e.queue.Enqueue(ctx, Task{URL: u}); err != nil {
				enqueueErr <- fmt.Errorf("enqueue %s: %w", u, err)
				return
			}
		}
		enqueueErr <- nil
	}()

	results := e.pool.Run(ctx)
	if err := <-enqueueErr; err != nil {
		return summary, err
	}

	products := e.aggregate(results, &summary)
	if len(products) == 0 {
		e.recorder.RunCompleted("error", e.clock.Now().Sub(start))
		return summary, ErrNoProducts
	}

	if err := e.sink.Write(ctx, products); err != nil {
		e.recorder.RunCompleted("error", e.clock.Now().Sub(start))
		return summary, fmt.Errorf("write output: %w", err)
	}
	summary.Written = len(products)
	e.recorder.RunCompleted("success", e.clock.Now().Sub(start))

	e.logger.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("urls", summary.URLsResolved),
		zap.Int("extracted", summary.Extracted),
		zap.Int("partial", summary.Partial),
		zap.Int("failed", summary.Failed),
		zap.Int("written", summary.Written),
	)
	return summary, nil
}

// aggregate drops hard failures, counts outcomes, and orders products
// by ID so repeated runs against an unchanged store emit a stable set.
func (e *Engine) aggregate(results []Result, summary *Summary) []Product {
	products := make([]Product, 0, len(results))
	for _, res := range results {
		switch res.Outcome {
		case OutcomeFailed:
			summary.Failed++
			e.logger.Warn("dropping unreachable page",
				zap.String("url", res.URL),
				zap.Error(res.Err),
			)
			continue
		case OutcomePartial:
			summary.Partial++
		case OutcomeExtracted:
			summary.Extracted++
		}
		products = append(products, res.Product)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].ProductID != products[j].ProductID {
			return products[i].ProductID < products[j].ProductID
		}
		return products[i].URL < products[j].URL
	})
	return products
}
