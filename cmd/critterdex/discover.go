package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/critterdex/internal/catalog"
	"github.com/IshaanNene/critterdex/internal/engine"
	"github.com/IshaanNene/critterdex/internal/fetcher"
)

// discoverCmd creates the "discover" subcommand.
func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <edition> <kind>",
		Short: "Print the candidate creature URLs of one category page",
		Example: `  critterdex discover New_Horizons fish
  critterdex discover Wild_World bugs --range-filter`,
		Args: cobra.ExactArgs(2),
		RunE: runDiscover,
	}
	cmd.Flags().BoolVar(&rangeFilter, "range-filter", false, "keep only links between the configured range markers")
	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	version, err := catalog.ParseVersion(args[0])
	if err != nil {
		return err
	}
	kind, err := catalog.ParseKind(args[1])
	if err != nil {
		return err
	}
	if !kind.AppliesTo(version) {
		return fmt.Errorf("%s has no %s category", version, kind)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	crawler, err := engine.New(cfg, f, logger)
	if err != nil {
		return fmt.Errorf("create crawler: %w", err)
	}

	target := catalog.Target{
		Version: version,
		Kind:    kind,
		URL:     catalog.RootURL(cfg.Wiki.BaseURL, version, kind),
	}
	urls, err := crawler.Discover(cmd.Context(), target)
	if err != nil {
		return fmt.Errorf("discover %s: %w", target, err)
	}

	extractor := crawler.Extractor()
	for _, u := range urls {
		if extractor.IsExcluded(u) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t(excluded)\n", u)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), u)
	}
	return nil
}
