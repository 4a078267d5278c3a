package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/critterdex/internal/config"
	"github.com/IshaanNene/critterdex/internal/engine"
	"github.com/IshaanNene/critterdex/internal/fetcher"
	"github.com/IshaanNene/critterdex/internal/observability"
	"github.com/IshaanNene/critterdex/internal/storage"
)

var (
	dbPath       string
	storageType  string
	commitPolicy string
	rangeFilter  bool
	minLength    int
	tags         []string
	games        []string
	kinds        []string
)

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl every target and rebuild its table",
		Long: `Crawl every (edition, kind) target and rebuild its table.

All category pages are scanned first; then each target's table is dropped,
recreated, and filled. With the default commit policy the whole run is one
transaction: any fetch failure leaves the previous tables untouched.`,
		Args: cobra.NoArgs,
		RunE: runCrawl,
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path")
	cmd.Flags().StringVar(&storageType, "storage", "", "storage backend: sqlite, mongodb, json, jsonl, csv")
	cmd.Flags().StringVar(&commitPolicy, "commit", "", "commit policy: run or table")
	cmd.Flags().BoolVar(&rangeFilter, "range-filter", false, "keep only links between the configured range markers")
	cmd.Flags().IntVar(&minLength, "min-length", 0, "minimum description length accepted by the extractor")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "description selectors tried in order (e.g. p,i)")
	cmd.Flags().StringSliceVar(&games, "game", nil, "restrict to an edition (repeatable)")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "restrict to a creature kind (repeatable)")

	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	var opts []engine.Option
	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(logger)
		metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
		opts = append(opts, engine.WithMetrics(metrics))
	}

	crawler, err := engine.New(cfg, f, logger, opts...)
	if err != nil {
		return fmt.Errorf("create crawler: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	report, err := crawler.Run(ctx, store)
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	printReport(cmd, cfg, report)
	return nil
}

func printReport(cmd *cobra.Command, cfg *config.Config, report *engine.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Table", "Candidates", "Inserted", "Duplicates", "Dropped", "Storage Errors"})

	var dups, dropped, storageErrs int
	for _, tr := range report.Tables {
		t.AppendRow(table.Row{tr.Target.Table(), tr.Candidates, tr.Inserted, tr.Duplicates, tr.Dropped, tr.StorageErrors})
		dups += tr.Duplicates
		dropped += tr.Dropped
		storageErrs += tr.StorageErrors
	}
	t.AppendFooter(table.Row{"Total", report.Candidates(), report.Inserted(), dups, dropped, storageErrs})
	t.SetStyle(table.StyleRounded)
	t.Render()

	out := cfg.Storage.Path
	if cfg.Storage.Type != "sqlite" {
		out = cfg.Storage.OutputDir
		if cfg.Storage.Type == "mongodb" {
			out = cfg.Storage.MongoDatabase
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nCrawl complete in %s, written to %s (%s)\n",
		report.Elapsed.Round(time.Millisecond), out, cfg.Storage.Type)
}

// applyCLIOverrides applies the flags the user set to the config. Flags
// that were not given, or that the command does not define, leave file and
// environment values alone.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Storage.Path = dbPath
	}
	if flags.Changed("storage") {
		cfg.Storage.Type = storageType
	}
	if flags.Changed("commit") {
		cfg.Storage.Commit = commitPolicy
	}
	if flags.Changed("range-filter") {
		cfg.Discovery.RangeFilter = rangeFilter
	}
	if flags.Changed("min-length") {
		cfg.Extractor.MinLength = minLength
	}
	if flags.Changed("tags") {
		cfg.Extractor.Tags = tags
	}
	if flags.Changed("kind") {
		cfg.Crawl.Kinds = kinds
	}
	if flags.Changed("game") && cmd.Name() == "crawl" {
		cfg.Crawl.Versions = games
	}
}
