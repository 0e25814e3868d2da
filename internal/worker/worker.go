// Package worker implements the scrape pipeline execution loop.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dteproject/shopscraper/internal/metrics"
	"github.com/dteproject/shopscraper/internal/scrape"
)

// Dequeuer is the consuming side of the task queue.
type Dequeuer interface {
	Dequeue(ctx context.Context) (scrape.Task, error)
}

// Collector accumulates results from concurrent workers.
type Collector struct {
	mu      sync.Mutex
	results []scrape.Result
}

// NewCollector constructs an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a result.
func (c *Collector) Add(result scrape.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

// Results returns everything collected so far.
func (c *Collector) Results() []scrape.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]scrape.Result, len(c.results))
	copy(out, c.results)
	return out
}

// Worker consumes tasks and executes the fetch+extract pipeline. Each
// worker owns its own rate limiter so the per-worker delay holds while
// aggregate throughput scales with the pool size.
type Worker struct {
	queue     Dequeuer
	fetcher   scrape.Fetcher
	extractor scrape.Extractor
	snapshots scrape.SnapshotSink
	limiter   *rate.Limiter
	collector *Collector
	recorder  *metrics.Recorder
	logger    *zap.Logger
}

// New constructs a Worker. The snapshot sink may be nil.
func New(
	queue Dequeuer,
	fetcher scrape.Fetcher,
	extractor scrape.Extractor,
	snapshots scrape.SnapshotSink,
	limiter *rate.Limiter,
	collector *Collector,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:     queue,
		fetcher:   fetcher,
		extractor: extractor,
		snapshots: snapshots,
		limiter:   limiter,
		collector: collector,
		recorder:  recorder,
		logger:    logger,
	}
}

// Run blocks, consuming tasks until the queue drains or the context ends.
func (w *Worker) Run(ctx context.Context) {
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Debug("queue drained", zap.Error(err))
			return
		}
		w.processTask(ctx, task)
	}
}

func (w *Worker) processTask(ctx context.Context, task scrape.Task) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
	}

	page, err := w.fetcher.Fetch(ctx, task.URL)
	w.recorder.FetchDone(page.Site(), page.StatusCode, page.Duration.Seconds())
	if err != nil {
		w.logger.Warn("fetch failed", zap.String("url", task.URL), zap.Error(err))
		result := scrape.Result{URL: task.URL, Outcome: scrape.OutcomeFailed, Err: err}
		w.collector.Add(result)
		w.recorder.ExtractionDone(string(result.Outcome))
		return
	}
	w.logger.Debug("page fetched",
		zap.String("url", task.URL),
		zap.Int("status", page.StatusCode),
		zap.Duration("duration", page.Duration),
	)

	w.saveSnapshot(ctx, page)

	result := w.extractor.Extract(ctx, page)
	w.collector.Add(result)
	w.recorder.ExtractionDone(string(result.Outcome))
}

func (w *Worker) saveSnapshot(ctx context.Context, page scrape.Page) {
	if w.snapshots == nil {
		return
	}
	path, err := w.snapshots.SaveHTML(ctx, page)
	if err != nil {
		w.logger.Warn("snapshot save failed", zap.String("url", page.URL), zap.Error(err))
		return
	}
	w.logger.Debug("snapshot saved", zap.String("url", page.URL), zap.String("path", path))
}

// Pool fans out queue work to a fixed set of workers.
type Pool struct {
	workers   []*Worker
	collector *Collector
	logger    *zap.Logger
}

// NewPool creates a Pool over pre-built workers sharing one collector.
func NewPool(workers []*Worker, collector *Collector, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{workers: workers, collector: collector, logger: logger}
}

// Run starts every worker, blocks until all of them finish draining the
// queue, and returns the collected results.
func (p *Pool) Run(ctx context.Context) []scrape.Result {
	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func(wk *Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	wg.Wait()
	p.logger.Debug("worker pool drained", zap.Int("workers", len(p.workers)))
	return p.collector.Results()
}
