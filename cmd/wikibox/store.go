package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/wikibox/internal/adapter/jsonfile"
	"github.com/heartmarshall/wikibox/internal/adapter/postgres"
	"github.com/heartmarshall/wikibox/internal/adapter/postgres/harvestrun"
	"github.com/heartmarshall/wikibox/internal/app/harvest"
	"github.com/heartmarshall/wikibox/internal/domain"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Database.DSN == "" {
				return fmt.Errorf("database.dsn is required")
			}
			return postgres.Migrate(cmd.Context(), c.cfg.Database.DSN, c.log)
		},
	}
}

func newExportCmd(c *cli) *cobra.Command {
	var (
		runID    string
		template string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Rebuild the JSON document from a stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if c.cfg.Database.DSN == "" {
				return fmt.Errorf("database.dsn is required")
			}

			repo, closeStore, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			site := c.cfg.Wiki.SiteName()
			var id uuid.UUID
			if runID == "" {
				id, err = repo.LatestRunID(ctx, site)
			} else {
				id, err = uuid.Parse(runID)
				if err != nil {
					err = fmt.Errorf("--run %q: %w", runID, domain.ErrValidation)
				}
			}
			if err != nil {
				return err
			}

			boxes, err := repo.ListRecords(ctx, harvestrun.Filter{RunID: id, Template: template})
			if err != nil {
				return err
			}

			pages := make([]domain.PageRef, 0, len(boxes))
			seen := make(map[int]bool, len(boxes))
			for _, b := range boxes {
				if !seen[b.Page.ID] {
					seen[b.Page.ID] = true
					pages = append(pages, b.Page)
				}
			}
			groups, _ := harvest.GroupByTemplate(pages, boxes)

			if out == "" {
				return printJSON(cmd.OutOrStdout(), groups.Document())
			}
			if err := jsonfile.NewWriter(out, c.cfg.Output.Indent, c.log).WriteDocument(ctx, groups.Document()); err != nil {
				return err
			}
			c.log.Info("run exported",
				slog.String("run_id", id.String()),
				slog.Int("infoboxes", len(boxes)),
				slog.String("path", out),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id (default: latest run of the site)")
	cmd.Flags().StringVar(&template, "template", "", "only export one infobox template")
	cmd.Flags().StringVar(&out, "out", "", "write to a file instead of stdout")
	return cmd
}
