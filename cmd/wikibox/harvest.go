package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/wikibox/internal/adapter/jsonfile"
	"github.com/heartmarshall/wikibox/internal/app/harvest"
	"github.com/heartmarshall/wikibox/internal/config"
)

func newHarvestCmd(c *cli) *cobra.Command {
	var (
		categories []string
		recursive  bool
		out        string
		store      bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Walk categories, fetch lead sections and write parsed infoboxes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := c.cfg

			if cmd.Flags().Changed("category") {
				cfg.Harvest.Categories = config.ParseList(categories)
			}
			if cmd.Flags().Changed("recursive") {
				cfg.Harvest.Recursive = recursive
			}
			if cmd.Flags().Changed("out") {
				cfg.Output.Path = out
			}
			if cmd.Flags().Changed("store") {
				cfg.Output.Store = store
			}
			if len(cfg.Harvest.Categories) == 0 {
				return fmt.Errorf("no seed categories: use --category or harvest.categories")
			}

			w, err := c.wiki()
			if err != nil {
				return err
			}

			site := cfg.Wiki.SiteName()
			writer := jsonfile.NewWriter(cfg.Output.ResolvePath(site), cfg.Output.Indent, c.log)
			opts := []harvest.Option{harvest.WithWriter(writer)}

			if cfg.Output.Store && !dryRun {
				repo, closeStore, err := c.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeStore()
				opts = append(opts, harvest.WithStore(repo))
			}

			pipeline := harvest.NewPipeline(c.log, c.walker(w), c.fetcher(w), c.parser(), harvest.Config{
				Site:       site,
				Categories: cfg.Harvest.Categories,
				Recursive:  cfg.Harvest.Recursive,
				Cleanup: harvest.CleanupOptions{
					TrimSuffixes:     cfg.Harvest.TrimSuffixes,
					KeepPlaceholders: cfg.Harvest.KeepPlaceholders,
				},
				DryRun: dryRun,
			}, opts...)

			result, err := pipeline.Run(ctx)
			if err != nil {
				return err
			}

			if pipeline.HasFaults() {
				c.log.Warn("harvest completed with recoverable faults",
					slog.Int("missing", len(result.Missing)),
					slog.Int("dangling", len(result.Dangling)),
					slog.Int("parser_faults", result.Faults),
				)
			}
			if !dryRun {
				c.log.Info("output written",
					slog.String("path", writer.Path()),
					slog.String("run_id", result.Run.ID.String()),
				)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&categories, "category", nil, "seed category (repeatable)")
	f.BoolVar(&recursive, "recursive", false, "descend into subcategories")
	f.StringVar(&out, "out", "", "output JSON path (default projects/<site>.json)")
	f.BoolVar(&store, "store", false, "also persist the run to PostgreSQL")
	f.BoolVar(&dryRun, "dry-run", false, "harvest and parse without writing output")
	return cmd
}
