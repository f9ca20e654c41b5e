package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/wikibox/internal/domain"
)

// Phase names in execution order.
const (
	PhaseWalk   = "walk"
	PhaseFetch  = "fetch"
	PhaseParse  = "parse"
	PhaseOutput = "output"
)

// Config holds per-run settings.
type Config struct {
	Site       string
	Categories []string
	Recursive  bool
	Cleanup    CleanupOptions
	// DryRun skips the document writer and the run store.
	DryRun bool
}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Processed int
	Skipped   int
	Faults    int
	Duration  time.Duration
	Err       error
}

// Output is everything a successful run produced.
type Output struct {
	Run       domain.HarvestRun
	Infoboxes []domain.Infobox
	Groups    Groups
	Empty     []domain.PageRef
	Missing   []domain.MissingPage
	Dangling  []domain.PageRef
	Faults    int
}

// Pipeline runs the harvest phases in order. Sinks run only after every
// earlier phase succeeded, so a fatal fault never leaves partial output.
type Pipeline struct {
	log     *slog.Logger
	walker  CategoryWalker
	fetcher SectionFetcher
	parser  InfoboxParser
	writer  DocumentWriter
	store   RunStore
	cfg     Config
	now     func() time.Time
	results map[string]PhaseResult
}

// Option configures optional Pipeline collaborators.
type Option func(*Pipeline)

// WithWriter sets the document writer.
func WithWriter(w DocumentWriter) Option { return func(p *Pipeline) { p.writer = w } }

// WithStore sets the run store.
func WithStore(s RunStore) Option { return func(p *Pipeline) { p.store = s } }

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, walker CategoryWalker, fetcher SectionFetcher, parser InfoboxParser, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		log:     log.With("component", "harvest"),
		walker:  walker,
		fetcher: fetcher,
		parser:  parser,
		cfg:     cfg,
		now:     time.Now,
		results: make(map[string]PhaseResult),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// HasFaults returns true if any phase recorded recoverable faults.
func (p *Pipeline) HasFaults() bool {
	for _, r := range p.results {
		if r.Faults > 0 {
			return true
		}
	}
	return false
}

// Run executes one harvest. Fatal faults are returned as *domain.StageError.
func (p *Pipeline) Run(ctx context.Context) (*Output, error) {
	out := &Output{
		Run: domain.HarvestRun{
			ID:         uuid.New(),
			Site:       p.cfg.Site,
			Categories: p.cfg.Categories,
			Recursive:  p.cfg.Recursive,
			StartedAt:  p.now(),
		},
	}
	p.log.InfoContext(ctx, "harvest started",
		slog.String("run_id", out.Run.ID.String()),
		slog.String("site", p.cfg.Site),
		slog.Any("categories", p.cfg.Categories),
		slog.Bool("recursive", p.cfg.Recursive),
	)

	var pages []domain.PageRef
	err := p.phase(ctx, PhaseWalk, func() (PhaseResult, error) {
		res, err := p.walker.Discover(ctx, p.cfg.Categories, p.cfg.Recursive)
		if err != nil {
			return PhaseResult{}, &domain.StageError{Stage: domain.StageCategoryWalk, Err: err}
		}
		pages = res.Pages
		out.Dangling = res.Dangling
		return PhaseResult{Processed: len(res.Pages), Faults: len(res.Dangling)}, nil
	})
	if err != nil {
		return nil, err
	}

	var matched []Matched
	err = p.phase(ctx, PhaseFetch, func() (PhaseResult, error) {
		titles := make([]string, len(pages))
		for i, pg := range pages {
			titles[i] = pg.Title
		}
		res, err := p.fetcher.FetchRawSections(ctx, titles)
		if err != nil {
			return PhaseResult{}, &domain.StageError{Stage: domain.StageBatchFetch, Err: err}
		}
		var missing []domain.MissingPage
		matched, missing = MatchTitles(pages, res.Sections)
		out.Missing = append(res.Missing, missing...)
		return PhaseResult{Processed: len(matched), Skipped: len(out.Missing), Faults: len(out.Missing)}, nil
	})
	if err != nil {
		return nil, err
	}

	err = p.phase(ctx, PhaseParse, func() (PhaseResult, error) {
		out.Infoboxes, out.Faults = p.parseAll(ctx, matched)
		cleaned := Cleanup(out.Infoboxes, p.cfg.Cleanup)
		parsed := make([]domain.PageRef, len(matched))
		for i, m := range matched {
			parsed[i] = m.Page
		}
		out.Groups, out.Empty = GroupByTemplate(parsed, out.Infoboxes)
		if len(out.Empty) > 0 {
			titles := make([]string, len(out.Empty))
			for i, e := range out.Empty {
				titles[i] = e.Title
			}
			p.log.InfoContext(ctx, "pages without infobox", slog.Int("count", len(titles)), slog.Any("titles", titles))
		}
		p.log.DebugContext(ctx, "cleanup applied", slog.Int("fields", cleaned))
		return PhaseResult{Processed: len(out.Infoboxes), Skipped: len(out.Empty), Faults: out.Faults}, nil
	})
	if err != nil {
		return nil, err
	}

	out.Run.Pages = len(pages)
	out.Run.Infoboxes = len(out.Infoboxes)
	out.Run.Missing = len(out.Missing)
	out.Run.CompletedAt = p.now()

	if p.cfg.DryRun {
		p.results[PhaseOutput] = PhaseResult{Skipped: 1}
		p.log.InfoContext(ctx, "dry run, output skipped")
	} else {
		err = p.phase(ctx, PhaseOutput, func() (PhaseResult, error) {
			return p.emit(ctx, out)
		})
		if err != nil {
			return nil, err
		}
	}

	p.log.InfoContext(ctx, "harvest completed",
		slog.String("run_id", out.Run.ID.String()),
		slog.Int("pages", out.Run.Pages),
		slog.Int("infoboxes", out.Run.Infoboxes),
		slog.Int("templates", len(out.Groups)),
		slog.Int("missing", out.Run.Missing),
		slog.Int("parser_faults", out.Faults),
	)
	return out, nil
}

// phase runs fn, records its PhaseResult and logs the outcome.
func (p *Pipeline) phase(ctx context.Context, name string, fn func() (PhaseResult, error)) error {
	start := p.now()
	p.log.DebugContext(ctx, "starting phase", slog.String("phase", name))

	result, err := fn()
	result.Duration = p.now().Sub(start)
	result.Err = err
	p.results[name] = result

	if err != nil {
		p.log.ErrorContext(ctx, "phase failed",
			slog.String("phase", name),
			slog.String("error", err.Error()),
			slog.Duration("duration", result.Duration),
		)
		return err
	}
	p.log.InfoContext(ctx, "phase completed",
		slog.String("phase", name),
		slog.Int("processed", result.Processed),
		slog.Int("skipped", result.Skipped),
		slog.Int("faults", result.Faults),
		slog.Duration("duration", result.Duration),
	)
	return nil
}

func (p *Pipeline) parseAll(ctx context.Context, matched []Matched) ([]domain.Infobox, int) {
	var (
		boxes  []domain.Infobox
		faults int
	)
	for _, m := range matched {
		res := p.parser.Parse(m.Section.Text)
		for _, f := range res.Faults {
			p.log.WarnContext(ctx, "parser fault",
				slog.String("title", m.Page.Title),
				slog.Int("line", f.Line),
				slog.String("field", f.Field),
				slog.String("reason", f.Reason),
			)
		}
		faults += len(res.Faults)
		for _, name := range res.Templates {
			boxes = append(boxes, domain.Infobox{Template: name, Page: m.Page, Fields: res.Infoboxes[name]})
		}
	}
	return boxes, faults
}

// emit hands the run to the sinks so that a fatal fault leaves neither
// behind: the document is staged first, the store commits while the staged
// file waits, and only then is the document put in place. If that last step
// fails the stored run is deleted again.
func (p *Pipeline) emit(ctx context.Context, out *Output) (PhaseResult, error) {
	var (
		result  PhaseResult
		saved   bool
		saveErr error
	)
	save := func(ctx context.Context) error {
		if p.store == nil {
			return nil
		}
		if err := p.store.SaveRun(ctx, out.Run, out.Infoboxes); err != nil {
			saveErr = fmt.Errorf("save run: %w", err)
			return saveErr
		}
		saved = true
		result.Processed++
		return nil
	}

	if p.writer == nil {
		if err := save(ctx); err != nil {
			return result, &domain.StageError{Stage: domain.StagePersist, Err: err}
		}
		return result, nil
	}

	err := p.writer.StageDocument(ctx, out.Groups.Document(), save)
	switch {
	case err == nil:
		result.Processed++
		return result, nil
	case saveErr != nil:
		return result, &domain.StageError{Stage: domain.StagePersist, Err: saveErr}
	}

	err = fmt.Errorf("write document: %w", err)
	if saved {
		if delErr := p.store.DeleteRun(context.WithoutCancel(ctx), out.Run.ID); delErr != nil {
			p.log.ErrorContext(ctx, "stored run could not be removed after failed write",
				slog.String("run_id", out.Run.ID.String()),
				slog.String("error", delErr.Error()),
			)
			err = errors.Join(err, fmt.Errorf("delete run %s: %w", out.Run.ID, delErr))
		}
		result.Processed--
	}
	return result, &domain.StageError{Stage: domain.StagePersist, Err: err}
}
