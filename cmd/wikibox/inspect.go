package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/wikibox/internal/adapter/mediawiki"
	"github.com/heartmarshall/wikibox/internal/config"
	"github.com/heartmarshall/wikibox/internal/domain"
)

type categoryListing struct {
	Pages         []domain.PageRef            `json:"pages"`
	Subcategories []string                    `json:"subcategories"`
	ByCategory    map[string][]domain.PageRef `json:"by_category"`
	Dangling      []domain.PageRef            `json:"dangling,omitempty"`
}

func newCategoriesCmd(c *cli) *cobra.Command {
	var (
		categories []string
		recursive  bool
	)

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the pages reachable from seed categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seeds := c.cfg.Harvest.Categories
			if cmd.Flags().Changed("category") {
				seeds = config.ParseList(categories)
			}
			if !cmd.Flags().Changed("recursive") {
				recursive = c.cfg.Harvest.Recursive
			}

			w, err := c.wiki()
			if err != nil {
				return err
			}
			res, err := c.walker(w).Discover(cmd.Context(), seeds, recursive)
			if err != nil {
				return &domain.StageError{Stage: domain.StageCategoryWalk, Err: err}
			}
			return printJSON(cmd.OutOrStdout(), categoryListing{
				Pages:         res.Pages,
				Subcategories: res.Subcategories,
				ByCategory:    res.PagesByCategory,
				Dangling:      res.Dangling,
			})
		},
	}
	cmd.Flags().StringArrayVar(&categories, "category", nil, "seed category (repeatable)")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "descend into subcategories")
	return cmd
}

func newPagesCmd(c *cli) *cobra.Command {
	var namespace int

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List every non-redirect page of a namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := c.wiki()
			if err != nil {
				return err
			}
			pages, err := c.walker(w).AllPages(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pages)
		},
	}
	cmd.Flags().IntVar(&namespace, "namespace", domain.NamespaceArticle, "namespace id")
	return cmd
}

func newNamespacesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "namespaces",
		Short: "List the namespaces of the site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := c.wiki()
			if err != nil {
				return err
			}
			ns, err := c.siteinfo(w).Namespaces(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ns)
		},
	}
}

func newPageCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "page <title>",
		Short: "Print the raw lead section of one page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// action=raw lives on index.php, which only the HTTP client speaks.
			client := mediawiki.NewClient(c.cfg.Wiki, c.log)
			section, err := client.RawSection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := io.WriteString(cmd.OutOrStdout(), section.Text); err != nil {
				return fmt.Errorf("write page: %w", err)
			}
			return nil
		},
	}
}
