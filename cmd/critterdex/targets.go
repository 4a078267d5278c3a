package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/critterdex/internal/catalog"
)

// targetsCmd creates the "targets" subcommand.
func targetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the category pages a crawl covers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "Edition", "Kind", "Table", "URL"})
			for i, tg := range catalog.Targets(cfg.Wiki.BaseURL, cfg.Crawl.Filter()) {
				t.AppendRow(table.Row{i + 1, tg.Version, tg.Kind, tg.Table(), tg.URL})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
}
