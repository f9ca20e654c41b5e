package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/heartmarshall/wikibox/internal/adapter/jsonfile"
	"github.com/heartmarshall/wikibox/internal/adapter/mediawiki"
	"github.com/heartmarshall/wikibox/internal/adapter/postgres"
	"github.com/heartmarshall/wikibox/internal/adapter/postgres/harvestrun"
	"github.com/heartmarshall/wikibox/internal/app/harvest"
	"github.com/heartmarshall/wikibox/internal/category"
	"github.com/heartmarshall/wikibox/internal/infobox"
	"github.com/heartmarshall/wikibox/internal/pacer"
	"github.com/heartmarshall/wikibox/internal/revision"
	"github.com/heartmarshall/wikibox/internal/siteinfo"
)

// Compile-time interface assertions.
var (
	_ harvest.CategoryWalker = (*category.Walker)(nil)
	_ harvest.SectionFetcher = (*revision.Fetcher)(nil)
	_ harvest.InfoboxParser  = (*infobox.Parser)(nil)
	_ harvest.RunStore       = (*harvestrun.Repo)(nil)
	_ harvest.DocumentWriter = (*jsonfile.Writer)(nil)
)

// wikiConn bundles the API client and the single pacer every component shares,
// so pacing holds across the walk and the fetch.
type wikiConn struct {
	api   mediawiki.API
	pacer pacer.Pacer
}

func (c *cli) wiki() (*wikiConn, error) {
	api, err := mediawiki.New(c.cfg.Wiki, c.log)
	if err != nil {
		return nil, err
	}
	return &wikiConn{api: api, pacer: pacer.New(c.cfg.Harvest.RequestDelay)}, nil
}

func (c *cli) walker(w *wikiConn) *category.Walker {
	return category.NewWalker(w.api, w.pacer, c.cfg.Harvest.MemberLimit, c.log)
}

func (c *cli) fetcher(w *wikiConn) *revision.Fetcher {
	return revision.NewFetcher(w.api, w.pacer, c.cfg.Harvest.BatchSize, c.log)
}

func (c *cli) siteinfo(w *wikiConn) *siteinfo.Reader {
	return siteinfo.NewReader(w.api, w.pacer, c.log)
}

func (c *cli) parser() *infobox.Parser {
	return infobox.NewParser(infobox.Options{
		KeepKeyCase:  c.cfg.Harvest.KeepKeyCase,
		MaxListItems: c.cfg.Harvest.MaxListItems,
	})
}

// openStore connects to PostgreSQL. The returned func closes the pool.
func (c *cli) openStore(ctx context.Context) (*harvestrun.Repo, func(), error) {
	pool, err := postgres.NewPool(ctx, c.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return harvestrun.New(pool, postgres.NewTxManager(pool)), pool.Close, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
