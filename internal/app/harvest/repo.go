// Package harvest orchestrates a harvest run: category walk, batch fetch,
// infobox parsing, aggregation and output.
package harvest

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/wikibox/internal/category"
	"github.com/heartmarshall/wikibox/internal/domain"
	"github.com/heartmarshall/wikibox/internal/infobox"
	"github.com/heartmarshall/wikibox/internal/revision"
)

// CategoryWalker discovers pages. Implemented by category.Walker.
type CategoryWalker interface {
	Discover(ctx context.Context, seeds []string, recursive bool) (*category.Result, error)
}

// SectionFetcher fetches lead sections. Implemented by revision.Fetcher.
type SectionFetcher interface {
	FetchRawSections(ctx context.Context, titles []string) (*revision.Result, error)
}

// InfoboxParser parses wikitext. Implemented by infobox.Parser.
type InfoboxParser interface {
	Parse(text string) infobox.Result
}

// DocumentWriter receives the output document. Implemented by jsonfile.Writer.
// StageDocument writes doc aside, runs commit, and replaces the destination
// only when commit succeeds. A commit error is returned unchanged.
type DocumentWriter interface {
	StageDocument(ctx context.Context, doc any, commit func(ctx context.Context) error) error
}

// RunStore persists a completed run. Implemented by harvestrun.Repo.
type RunStore interface {
	SaveRun(ctx context.Context, run domain.HarvestRun, boxes []domain.Infobox) error
	DeleteRun(ctx context.Context, id uuid.UUID) error
}
