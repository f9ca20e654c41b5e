// Package category discovers the pages that belong to a set of wiki
// categories.
package category

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strconv"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"github.com/heartmarshall/wikibox/internal/adapter/mediawiki"
	"github.com/heartmarshall/wikibox/internal/domain"
	"github.com/heartmarshall/wikibox/internal/pacer"
)

// DefaultLimit is the cmlimit/aplimit used when none is configured.
const DefaultLimit = 500

// API is the wiki query capability the walker depends on.
type API interface {
	Get(ctx context.Context, p params.Values) (*jason.Object, error)
}

// Result is the outcome of a category walk.
type Result struct {
	// Pages holds every discovered article, unique by ID, sorted by title.
	Pages []domain.PageRef
	// Subcategories holds every discovered subcategory name, unique,
	// normalized and sorted. Seeds appear only if some walked category
	// lists them as a member.
	Subcategories []string
	// PagesByCategory maps each walked category to its direct articles.
	PagesByCategory map[string][]domain.PageRef
	// Dangling holds article members whose page id was not positive.
	Dangling []domain.PageRef
}

// Walker enumerates category members through the API.
type Walker struct {
	api   API
	pacer pacer.Pacer
	limit int
	log   *slog.Logger
}

// NewWalker creates a Walker. A limit <= 0 falls back to DefaultLimit.
func NewWalker(api API, p pacer.Pacer, limit int, logger *slog.Logger) *Walker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Walker{
		api:   api,
		pacer: p,
		limit: limit,
		log:   logger.With("component", "category"),
	}
}

// Discover walks seeds breadth-first. Subcategories are followed only when
// recursive is set, and each category is walked at most once so cycles
// terminate. Any transport fault aborts the walk.
func (w *Walker) Discover(ctx context.Context, seeds []string, recursive bool) (*Result, error) {
	visited := make(map[string]bool)
	var queue []string
	for _, s := range seeds {
		name := domain.NormalizeCategory(s)
		if name == "" || visited[name] {
			continue
		}
		visited[name] = true
		queue = append(queue, name)
	}

	pages := make(map[int]domain.PageRef)
	subcats := make(map[string]bool)
	dangling := make(map[string]domain.PageRef)
	byCategory := make(map[string][]domain.PageRef)

	for len(queue) > 0 {
		cat := queue[0]
		queue = queue[1:]

		members, err := w.members(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", cat, err)
		}

		seenInCat := make(map[int]bool)
		for _, m := range members {
			switch m.Namespace {
			case domain.NamespaceCategory:
				name := domain.NormalizeCategory(m.Title)
				subcats[name] = true
				if recursive && !visited[name] {
					visited[name] = true
					queue = append(queue, name)
				}
			case domain.NamespaceArticle:
				ref := domain.PageRef{ID: m.PageID, Title: m.Title}
				if ref.ID <= 0 {
					w.log.WarnContext(ctx, "dangling category member",
						slog.String("category", cat),
						slog.String("title", m.Title),
						slog.Int("pageid", m.PageID),
					)
					dangling[ref.Title] = ref
					continue
				}
				if _, ok := pages[ref.ID]; !ok {
					pages[ref.ID] = ref
				}
				if !seenInCat[ref.ID] {
					seenInCat[ref.ID] = true
					byCategory[cat] = append(byCategory[cat], ref)
				}
			default:
				w.log.DebugContext(ctx, "ignoring member",
					slog.String("category", cat),
					slog.String("title", m.Title),
					slog.Int("ns", m.Namespace),
				)
			}
		}

		w.log.DebugContext(ctx, "category walked",
			slog.String("category", cat),
			slog.Int("members", len(members)),
			slog.Int("queued", len(queue)),
		)
	}

	res := &Result{
		Pages:           sortedRefs(maps.Values(pages)),
		Dangling:        sortedRefs(maps.Values(dangling)),
		PagesByCategory: byCategory,
	}
	for name := range subcats {
		res.Subcategories = append(res.Subcategories, name)
	}
	sort.Strings(res.Subcategories)
	for cat := range byCategory {
		sortRefs(byCategory[cat])
	}

	w.log.InfoContext(ctx, "category walk complete",
		slog.Int("seeds", len(seeds)),
		slog.Int("categories", len(visited)),
		slog.Int("subcategories", len(res.Subcategories)),
		slog.Int("pages", len(res.Pages)),
		slog.Int("dangling", len(res.Dangling)),
	)
	return res, nil
}

// AllPages lists every non-redirect page in namespace.
func (w *Walker) AllPages(ctx context.Context, namespace int) ([]domain.PageRef, error) {
	p := params.Values{
		"action":        "query",
		"list":          "allpages",
		"apnamespace":   strconv.Itoa(namespace),
		"apfilterredir": "nonredirects",
		"aplimit":       strconv.Itoa(w.limit),
	}

	members, err := w.paginate(ctx, p, "allpages", "apcontinue")
	if err != nil {
		return nil, fmt.Errorf("allpages ns %d: %w", namespace, err)
	}

	pages := make(map[int]domain.PageRef, len(members))
	for _, m := range members {
		if m.PageID <= 0 {
			continue
		}
		pages[m.PageID] = domain.PageRef{ID: m.PageID, Title: m.Title}
	}

	w.log.InfoContext(ctx, "allpages complete", slog.Int("ns", namespace), slog.Int("pages", len(pages)))
	return sortedRefs(maps.Values(pages)), nil
}

func (w *Walker) members(ctx context.Context, cat string) ([]mediawiki.Member, error) {
	p := params.Values{
		"action":  "query",
		"list":    "categorymembers",
		"cmtitle": domain.CategoryTitle(cat),
		"cmtype":  "subcat|page",
		"cmprop":  "ids|title",
		"cmlimit": strconv.Itoa(w.limit),
	}
	return w.paginate(ctx, p, "categorymembers", "cmcontinue")
}

// paginate repeats the list query, echoing the continue object back,
// until a response carries no token.
func (w *Walker) paginate(ctx context.Context, base params.Values, list, token string) ([]mediawiki.Member, error) {
	p := make(params.Values, len(base)+2)
	maps.Copy(p, base)
	p["continue"] = ""

	var (
		all  []mediawiki.Member
		last string
	)
	for {
		if err := w.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := w.api.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		members, err := mediawiki.Members(resp, list)
		if err != nil {
			return nil, err
		}
		all = append(all, members...)

		cont, more := mediawiki.Continuation(resp, token)
		if !more {
			return all, nil
		}
		if cont[token] == last {
			return nil, fmt.Errorf("%w: %s did not advance past %q", domain.ErrTransport, token, last)
		}
		last = cont[token]
		maps.Copy(p, cont)
	}
}

func sortedRefs(seq iter.Seq[domain.PageRef]) []domain.PageRef {
	refs := slices.Collect(seq)
	sortRefs(refs)
	return refs
}

func sortRefs(refs []domain.PageRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Title != refs[j].Title {
			return refs[i].Title < refs[j].Title
		}
		return refs[i].ID < refs[j].ID
	})
}
