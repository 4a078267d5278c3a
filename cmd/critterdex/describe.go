package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/critterdex/internal/catalog"
	"github.com/IshaanNene/critterdex/internal/config"
	"github.com/IshaanNene/critterdex/internal/engine"
	"github.com/IshaanNene/critterdex/internal/fetcher"
)

var describeGame string

// describeCmd creates the "describe" subcommand.
func describeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <url>",
		Short: "Print the name and description extracted from one creature page",
		Example: `  critterdex describe https://animalcrossing.fandom.com/wiki/Sea_Bass
  critterdex describe https://animalcrossing.fandom.com/wiki/Tarantula --game New_Leaf`,
		Args: cobra.ExactArgs(1),
		RunE: runDescribe,
	}
	cmd.Flags().StringVar(&describeGame, "game", string(catalog.NewHorizons), "edition whose description is extracted")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "description selectors tried in order (e.g. p,i)")
	cmd.Flags().IntVar(&minLength, "min-length", 0, "minimum description length accepted by the extractor")
	return cmd
}

func runDescribe(cmd *cobra.Command, args []string) error {
	version, err := catalog.ParseVersion(describeGame)
	if err != nil {
		return err
	}
	if err := config.ValidateURL(args[0]); err != nil {
		return fmt.Errorf("invalid URL %q: %w", args[0], err)
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

	rec, err := engine.NewExtractor(cfg, f, logger).Record(cmd.Context(), args[0], string(version))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Name:        %s\n", rec.Name)
	fmt.Fprintf(w, "Edition:     %s\n", version)
	fmt.Fprintf(w, "Length:      %d\n", rec.DescriptionLen())
	fmt.Fprintf(w, "Description: %s\n", rec.Description)
	return nil
}
