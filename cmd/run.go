package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dteproject/shopscraper/internal/clock/system"
	"github.com/dteproject/shopscraper/internal/config"
	"github.com/dteproject/shopscraper/internal/extract"
	"github.com/dteproject/shopscraper/internal/feed"
	sha256hash "github.com/dteproject/shopscraper/internal/hash/sha256"
	"github.com/dteproject/shopscraper/internal/id/uuid"
	"github.com/dteproject/shopscraper/internal/llm"
	"github.com/dteproject/shopscraper/internal/logging"
	"github.com/dteproject/shopscraper/internal/metrics"
	"github.com/dteproject/shopscraper/internal/queue/memory"
	"github.com/dteproject/shopscraper/internal/scrape"
	"github.com/dteproject/shopscraper/internal/sitemap"
	"github.com/dteproject/shopscraper/internal/worker"
)

// newRunCmd creates the 'run' subcommand that executes a full scrape.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <store_url>",
		Short: "Scrape a storefront into a product feed",
		Long: `Resolves the storefront's sitemap tree, fetches every product page
with a fixed worker pool, and writes the extracted products as a single
schema.org ItemList JSON document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, args[0])
		},
	}

	cmd.Flags().Int("threads", 0, "worker pool size (overrides config)")
	cmd.Flags().String("output", "", "output file path (overrides config)")
	cmd.Flags().String("snapshot-dir", "", "directory for raw HTML snapshots (overrides config)")

	return cmd
}

func runScrape(cmd *cobra.Command, storeURL string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	recorder, err := metrics.NewRecorder(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, logger)
		srv.Start()
		defer func() {
			if serr := srv.Shutdown(context.Background()); serr != nil {
				logger.Warn("metrics server shutdown failed", zap.Error(serr))
			}
		}()
	}

	engine, cleanup, err := buildEngine(cfg, storeURL, recorder, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("scrape %s: %w", storeURL, err)
	}

	fmt.Printf("run %s: %d urls, %d extracted, %d partial, %d failed, %d written in %s\n",
		summary.RunID,
		summary.URLsResolved,
		summary.Extracted,
		summary.Partial,
		summary.Failed,
		summary.Written,
		summary.Duration.Round(10*time.Millisecond),
	)
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("threads") {
		threads, err := cmd.Flags().GetInt("threads")
		if err != nil {
			return err
		}
		if threads <= 0 {
			return fmt.Errorf("--threads must be > 0")
		}
		cfg.Scraper.Threads = threads
	}
	if cmd.Flags().Changed("output") {
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		cfg.Output.File = output
	}
	if cmd.Flags().Changed("snapshot-dir") {
		dir, err := cmd.Flags().GetString("snapshot-dir")
		if err != nil {
			return err
		}
		cfg.Output.SnapshotDir = dir
	}
	return cfg.Validate()
}

func buildEngine(
	cfg config.Config,
	storeURL string,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) (*scrape.Engine, func(), error) {
	clock := system.New()
	hasher := sha256hash.New()
	idGen := uuid.NewUUIDGenerator()

	base, err := scrape.NewCollyFetcher(scrape.FetcherConfig{
		UserAgent:   cfg.Scraper.UserAgent,
		Timeout:     cfg.FetchTimeout(),
		Concurrency: cfg.Scraper.Threads,
	}, clock, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init fetcher: %w", err)
	}
	policy := scrape.NewRetryPolicy(cfg.HTTP.MaxRetries+1, cfg.BackoffInitial(), cfg.BackoffMax())
	fetcher := scrape.NewRetryingFetcher(base, policy, logger)

	resolver := sitemap.NewResolver(fetcher, logger, sitemap.WithMaxDepth(cfg.Scraper.SitemapDepth))

	cleanup := func() {}
	var fallback scrape.FallbackExtractor
	if cfg.LLM.Enabled {
		client := llm.NewClient(llm.Config{
			Model:    cfg.LLM.Model,
			MaxChars: cfg.LLM.MaxChars,
		}, llm.EnvKeyResolver(llm.DefaultEnvVar, os.Stdin, os.Stderr), logger)
		fallback = client
		cleanup = func() {
			if cerr := client.Close(); cerr != nil {
				logger.Warn("llm client close failed", zap.Error(cerr))
			}
		}
	}

	extractor := extract.New(extract.Config{}, fallback, recorder, logger)

	var snapshots scrape.SnapshotSink
	if cfg.Output.SnapshotDir != "" {
		sink, serr := scrape.NewFileSystemSnapshotSink(cfg.Output.SnapshotDir, 0, hasher, logger)
		if serr != nil {
			cleanup()
			return nil, nil, fmt.Errorf("init snapshot sink: %w", serr)
		}
		snapshots = sink
	}

	queue := memory.NewQueue(cfg.Scraper.QueueDepth)
	collector := worker.NewCollector()
	workers := make([]*worker.Worker, 0, cfg.Scraper.Threads)
	for i := 0; i < cfg.Scraper.Threads; i++ {
		limiter := rate.NewLimiter(rate.Every(cfg.WorkerDelay()), 1)
		workers = append(workers, worker.New(
			queue,
			fetcher,
			extractor,
			snapshots,
			limiter,
			collector,
			recorder,
			logger,
		))
	}
	pool := worker.NewPool(workers, collector, logger)

	sink := feed.NewWriter(cfg.Output.File, logger)

	engine := scrape.NewEngine(storeURL, resolver, queue, pool, sink, clock, idGen, recorder, logger)
	return engine, cleanup, nil
}
