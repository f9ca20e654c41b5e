// Package revision fetches the lead section wikitext of pages in batches.
package revision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"github.com/heartmarshall/wikibox/internal/adapter/mediawiki"
	"github.com/heartmarshall/wikibox/internal/domain"
	"github.com/heartmarshall/wikibox/internal/pacer"
)

// MaxBatchSize is the largest titles= list a non-bot client may send.
const MaxBatchSize = 50

// API is the wiki query capability the fetcher depends on.
type API interface {
	Get(ctx context.Context, p params.Values) (*jason.Object, error)
}

// Result holds the sections that were fetched and the pages that could
// not be resolved.
type Result struct {
	Sections map[int]domain.RawSection
	Missing  []domain.MissingPage
}

// Fetcher requests section 0 of the latest revision for batches of titles.
type Fetcher struct {
	api       API
	pacer     pacer.Pacer
	batchSize int
	log       *slog.Logger
}

// NewFetcher creates a Fetcher. batchSize is clamped to 1..MaxBatchSize.
func NewFetcher(api API, p pacer.Pacer, batchSize int, logger *slog.Logger) *Fetcher {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &Fetcher{
		api:       api,
		pacer:     p,
		batchSize: batchSize,
		log:       logger.With("component", "revision"),
	}
}

// FetchRawSections fetches every title, one request per batch. Missing
// pages are collected as warnings; a transport fault on any batch aborts
// the whole fetch and no partial result is returned.
func (f *Fetcher) FetchRawSections(ctx context.Context, titles []string) (*Result, error) {
	titles = dedupTitles(titles)
	res := &Result{Sections: make(map[int]domain.RawSection, len(titles))}

	batches := 0
	for start := 0; start < len(titles); start += f.batchSize {
		end := min(start+f.batchSize, len(titles))
		batch := titles[start:end]
		batches++

		if err := f.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		if err := f.fetchBatch(ctx, batch, res); err != nil {
			return nil, fmt.Errorf("batch %d (%d titles): %w", batches, len(batch), err)
		}
	}

	f.log.InfoContext(ctx, "revisions fetched",
		slog.Int("titles", len(titles)),
		slog.Int("batches", batches),
		slog.Int("sections", len(res.Sections)),
		slog.Int("missing", len(res.Missing)),
	)
	return res, nil
}

func (f *Fetcher) fetchBatch(ctx context.Context, batch []string, res *Result) error {
	resp, err := f.api.Get(ctx, params.Values{
		"action":    "query",
		"prop":      "revisions",
		"rvprop":    "content",
		"rvsection": "0",
		"rvslots":   "*",
		"titles":    strings.Join(batch, "|"),
	})
	if err != nil {
		return err
	}

	pages, err := mediawiki.Pages(resp)
	if err != nil {
		return err
	}

	for _, p := range pages {
		reason := ""
		switch {
		case p.Key <= 0 || p.PageID <= 0:
			reason = "page does not exist"
		case p.Invalid:
			reason = "invalid title"
		case p.Missing:
			reason = "page does not exist"
		case !p.HasContent:
			reason = "no revision content"
		}
		if reason != "" {
			f.log.WarnContext(ctx, "missing page",
				slog.String("title", p.Title),
				slog.Int("pageid", p.Key),
				slog.String("reason", reason),
			)
			res.Missing = append(res.Missing, domain.MissingPage{PageID: p.Key, Title: p.Title, Reason: reason})
			continue
		}

		res.Sections[p.PageID] = domain.RawSection{PageID: p.PageID, Title: p.Title, Text: p.Content}
	}
	return nil
}

// dedupTitles drops blank and repeated titles, keeping first-seen order.
func dedupTitles(titles []string) []string {
	seen := make(map[string]bool, len(titles))
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		t = domain.CompressSpaces(strings.ReplaceAll(t, "_", " "))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
