package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/critterdex/internal/config"
	"github.com/IshaanNene/critterdex/internal/observability"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "critterdex",
		Short: "Critterdex: Animal Crossing creature flavor-text crawler",
		Long: `Critterdex crawls the Animal Crossing fandom wiki and builds a table of
creature names and in-game flavor text for every edition and creature kind.

For each (edition, kind) pair the category page is scanned for creature
links, every creature page is fetched once, and the description under the
edition's heading is stored in a table such as new_horizons_fish.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(targetsCmd())
	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(describeCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

// loadConfig reads the config file, applies the command's flag overrides,
// and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates the process logger from the logging section.
func setupLogger(cfg *config.Config) *slog.Logger {
	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	return observability.NewLogger(logCfg, os.Stderr)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "critterdex %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wiki:\n")
			fmt.Fprintf(w, "  Base URL:          %s\n", cfg.Wiki.BaseURL)
			fmt.Fprintf(w, "  Exclusions:        %s\n", strings.Join(cfg.Wiki.Exclusions, ", "))
			fmt.Fprintf(w, "\nDiscovery:\n")
			fmt.Fprintf(w, "  Link Pattern:      %s\n", cfg.Discovery.LinkPattern)
			fmt.Fprintf(w, "  Range Filter:      %v (end %s)\n", cfg.Discovery.RangeFilter, cfg.Discovery.RangeEnd)
			fmt.Fprintf(w, "\nExtractor:\n")
			fmt.Fprintf(w, "  Anchor Prefix:     %s\n", cfg.Extractor.AnchorPrefix)
			fmt.Fprintf(w, "  Tags:              %s\n", strings.Join(cfg.Extractor.Tags, ", "))
			fmt.Fprintf(w, "  Min Length:        %d\n", cfg.Extractor.MinLength)
			fmt.Fprintf(w, "\nFetcher:\n")
			fmt.Fprintf(w, "  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Fprintf(w, "  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Fprintf(w, "  Follow Redirects:  %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Fprintf(w, "  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Fprintf(w, "\nStorage:\n")
			fmt.Fprintf(w, "  Type:              %s\n", cfg.Storage.Type)
			fmt.Fprintf(w, "  Path:              %s\n", cfg.Storage.Path)
			fmt.Fprintf(w, "  Output Dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Fprintf(w, "  Min Description:   %d\n", cfg.Storage.MinDescriptionLength)
			fmt.Fprintf(w, "  Commit:            %s\n", cfg.Storage.Commit)
			fmt.Fprintf(w, "\nMetrics:\n")
			fmt.Fprintf(w, "  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Fprintf(w, "  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}
