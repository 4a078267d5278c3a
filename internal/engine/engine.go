// Package engine drives a crawl: it enumerates the category pages, discovers
// candidate creature pages on each, extracts a record from every candidate
// and hands the records to a store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/IshaanNene/critterdex/internal/catalog"
	"github.com/IshaanNene/critterdex/internal/config"
	"github.com/IshaanNene/critterdex/internal/fetcher"
	"github.com/IshaanNene/critterdex/internal/observability"
	"github.com/IshaanNene/critterdex/internal/pipeline"
	"github.com/IshaanNene/critterdex/internal/storage"
	"github.com/IshaanNene/critterdex/internal/types"
)

// Option configures a Crawler.
type Option func(*Crawler)

// WithMetrics mirrors crawl statistics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// WithPipeline replaces the default record pipeline.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(c *Crawler) { c.pipeline = p }
}

// Crawler is the crawl orchestrator. A run is strictly sequential: one
// page is fetched at a time and discovery for every target finishes before
// the first table is touched.
type Crawler struct {
	cfg         *config.Config
	fetcher     fetcher.Fetcher
	extractor   *Extractor
	pipeline    *pipeline.Pipeline
	metrics     *observability.Metrics
	linkPattern *regexp.Regexp
	stats       *Stats
	logger      *slog.Logger
}

// New creates a Crawler. The caller owns f and closes it.
func New(cfg *config.Config, f fetcher.Fetcher, logger *slog.Logger, opts ...Option) (*Crawler, error) {
	pattern, err := regexp.Compile(cfg.Discovery.LinkPattern)
	if err != nil {
		return nil, fmt.Errorf("discovery.link_pattern: %w", err)
	}

	c := &Crawler{
		cfg:         cfg,
		fetcher:     f,
		linkPattern: pattern,
		logger:      logger.With("component", "engine"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pipeline == nil {
		c.pipeline = pipeline.Default(logger, cfg.Storage.MinDescriptionLength)
	}
	c.stats = newStats(c.metrics)
	c.extractor = newExtractor(cfg, f, c.stats, logger)
	return c, nil
}

// Targets returns the category pages this crawler covers.
func (c *Crawler) Targets() []catalog.Target {
	return catalog.Targets(c.cfg.Wiki.BaseURL, c.cfg.Crawl.Filter())
}

// Extractor returns the crawler's page extractor.
func (c *Crawler) Extractor() *Extractor {
	return c.extractor
}

// Stats returns the live crawl statistics.
func (c *Crawler) Stats() *Stats {
	return c.stats
}

// Run crawls every target into store.
//
// Each target's table is recreated and filled with the records that pass the
// pipeline. Duplicate names and per-record storage errors are logged and
// skipped. Fetch failures, context cancellation, and table-level storage
// failures abort the run; the store is then rolled back, so with the default
// commit policy nothing from the run persists. The caller closes store.
func (c *Crawler) Run(ctx context.Context, store storage.Store) (report *Report, err error) {
	start := time.Now()
	defer func() {
		if err == nil {
			return
		}
		if rbErr := store.Rollback(); rbErr != nil {
			c.logger.Error("rollback failed", "store", store.Name(), "error", rbErr)
		}
	}()

	targets := c.Targets()
	c.logger.Info("crawl starting",
		"targets", len(targets),
		"store", store.Name(),
		"fetcher", c.fetcher.Type(),
		"commit", c.cfg.Storage.Commit,
	)

	candidates := make([][]string, len(targets))
	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		urls, err := c.Discover(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", t, err)
		}
		candidates[i] = urls
	}

	report = &Report{}
	for i, t := range targets {
		tr, err := c.persistTarget(ctx, store, t, candidates[i])
		if err != nil {
			return nil, fmt.Errorf("persist %s: %w", t, err)
		}
		if c.cfg.Storage.Commit == config.CommitTable {
			if err := store.Commit(ctx); err != nil {
				return nil, fmt.Errorf("commit %s: %w", t.Table(), err)
			}
			tr.Committed = true
		}
		report.Tables = append(report.Tables, tr)
	}

	if err := store.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	for i := range report.Tables {
		report.Tables[i].Committed = true
	}
	report.Elapsed = time.Since(start)

	c.logger.Info("crawl finished",
		"tables", len(report.Tables),
		"inserted", report.Inserted(),
		"elapsed", report.Elapsed.String(),
		"stats", c.stats.Snapshot(),
	)
	return report, nil
}

func (c *Crawler) persistTarget(ctx context.Context, store storage.Store, t catalog.Target, urls []string) (TableReport, error) {
	tr := TableReport{Target: t, Candidates: len(urls)}
	table := t.Table()

	if err := store.ResetTable(ctx, table); err != nil {
		return tr, err
	}
	c.stats.tableReset()

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return tr, err
		}

		rec, err := c.extractor.Record(ctx, url, string(t.Version))
		if err != nil {
			return tr, err
		}

		kept, err := c.pipeline.Process(rec)
		if err != nil {
			c.logger.Warn("record rejected", "table", table, "url", url, "error", err)
		}
		if kept == nil {
			c.stats.dropped()
			tr.Dropped++
			continue
		}

		err = store.Insert(ctx, table, kept)
		var storageErr *types.StorageError
		switch {
		case err == nil:
			c.stats.inserted()
			tr.Inserted++
			c.logger.Info("record inserted",
				"table", table,
				"name", kept.Name,
				"description", kept.Preview(20),
				"url", url,
			)
		case errors.Is(err, types.ErrDuplicate):
			c.stats.duplicate()
			tr.Duplicates++
			c.logger.Info("duplicate record skipped", "table", table, "name", kept.Name, "url", url)
		case errors.As(err, &storageErr):
			c.stats.storageFailed()
			tr.StorageErrors++
			c.logger.Warn("record not stored",
				"table", table,
				"statement", storageErr.Statement,
				"url", url,
				"error", storageErr.Err,
			)
		default:
			return tr, err
		}
	}

	c.logger.Info("table complete",
		"table", table,
		"candidates", tr.Candidates,
		"inserted", tr.Inserted,
		"duplicates", tr.Duplicates,
		"dropped", tr.Dropped,
	)
	return tr, nil
}
