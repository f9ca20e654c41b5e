package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/wikibox/internal/app"
	"github.com/heartmarshall/wikibox/internal/config"
)

// cli holds state shared by all subcommands.
type cli struct {
	configPath string
	site       string
	apiURL     string

	// logOut overrides the log destination. nil logs to stderr and sets
	// the process default logger.
	logOut io.Writer

	cfg *config.Config
	log *slog.Logger
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "wikibox",
		Short:         "Harvest infobox templates from a MediaWiki site",
		Version:       app.BuildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "path to YAML config (default $CONFIG_PATH or ./config.yaml)")
	pf.StringVar(&c.site, "site", "", "Fandom site name, e.g. coronationstreet")
	pf.StringVar(&c.apiURL, "api-url", "", "explicit api.php URL, overrides --site")

	root.AddCommand(
		newHarvestCmd(c),
		newCategoriesCmd(c),
		newPagesCmd(c),
		newNamespacesCmd(c),
		newPageCmd(c),
		newParseCmd(c),
		newMigrateCmd(c),
		newExportCmd(c),
	)
	return root
}

// setup loads .env, configuration and the logger. Flags override config.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("site") {
		cfg.Wiki.Site = c.site
		cfg.Wiki.APIURL = ""
	}
	if cmd.Flags().Changed("api-url") {
		cfg.Wiki.APIURL = c.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: validate: %w", err)
	}

	c.cfg = cfg
	if c.logOut != nil {
		c.log = app.NewLoggerTo(c.logOut, cfg.Log)
	} else {
		c.log = app.NewLogger(cfg.Log)
	}
	c.log.Debug("wikibox starting",
		slog.String("version", app.BuildVersion()),
		slog.String("command", cmd.Name()),
		slog.String("endpoint", cfg.Wiki.Endpoint()),
	)
	return nil
}
