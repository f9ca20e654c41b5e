package category

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/wikibox/internal/domain"
	"github.com/heartmarshall/wikibox/internal/pacer"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeWiki serves scripted list responses keyed by "<title>|<token>".
type fakeWiki struct {
	mu        sync.Mutex
	responses map[string]string
	failOn    string
	calls     []params.Values
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{responses: make(map[string]string)}
}

func (f *fakeWiki) on(title, token, body string) {
	f.responses[title+"|"+token] = body
}

func (f *fakeWiki) Get(_ context.Context, p params.Values) (*jason.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := make(params.Values, len(p))
	for k, v := range p {
		cp[k] = v
	}
	f.calls = append(f.calls, cp)

	title, token := p["cmtitle"], p["cmcontinue"]
	if p["list"] == "allpages" {
		title, token = "allpages:"+p["apnamespace"], p["apcontinue"]
	}
	if f.failOn != "" && title == f.failOn {
		return nil, fmt.Errorf("mediawiki: %w: unexpected status 503", domain.ErrTransport)
	}
	body, ok := f.responses[title+"|"+token]
	if !ok {
		return nil, fmt.Errorf("fake: no response scripted for %s|%s", title, token)
	}
	return jason.NewObjectFromBytes([]byte(body))
}

func (f *fakeWiki) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func members(ms ...string) string {
	return `{"batchcomplete":"","query":{"categorymembers":[` + strings.Join(ms, ",") + `]}}`
}

func page(id int, title string) string {
	return fmt.Sprintf(`{"pageid":%d,"ns":0,"title":%q}`, id, title)
}

func subcat(id int, name string) string {
	return fmt.Sprintf(`{"pageid":%d,"ns":14,"title":"Category:%s"}`, id, name)
}

func TestWalker_PaginationCompleteness(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("Category:Barlow family", "", `{"continue":{"cmcontinue":"page|KEN|17","continue":"-||"},"query":{"categorymembers":[`+
		page(1, "Amy Barlow")+","+page(2, "Tracy Barlow")+`]}}`)
	wiki.on("Category:Barlow family", "page|KEN|17", `{"continue":{"cmcontinue":"page|PETER|40","continue":"-||"},"query":{"categorymembers":[`+
		page(17, "Ken Barlow")+`]}}`)
	wiki.on("Category:Barlow family", "page|PETER|40", members(page(40, "Peter Barlow")))

	p := pacer.New(0)
	w := NewWalker(wiki, p, 2, newTestLogger())

	res, err := w.Discover(context.Background(), []string{"Barlow_family"}, false)
	require.NoError(t, err)

	want := []domain.PageRef{
		{ID: 1, Title: "Amy Barlow"},
		{ID: 17, Title: "Ken Barlow"},
		{ID: 40, Title: "Peter Barlow"},
		{ID: 2, Title: "Tracy Barlow"},
	}
	if diff := cmp.Diff(want, res.Pages); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, wiki.callCount())
	assert.Equal(t, int64(3), p.Waits())

	second := wiki.calls[1]
	assert.Equal(t, "page|KEN|17", second["cmcontinue"])
	assert.Equal(t, "-||", second["continue"])
	assert.Equal(t, "2", second["cmlimit"])
	assert.Equal(t, "subcat|page", second["cmtype"])
}

func TestWalker_RecursiveWithCycleAndSharedPages(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("Category:Residents", "", members(subcat(100, "Barlows"), page(1, "Ken Barlow"), page(5, "Rita Tanner")))
	wiki.on("Category:Barlows", "", members(subcat(101, "Residents"), page(1, "Ken Barlow"), page(2, "Deirdre Barlow")))

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	res, err := w.Discover(context.Background(), []string{"Residents"}, true)
	require.NoError(t, err)

	assert.Equal(t, []domain.PageRef{
		{ID: 2, Title: "Deirdre Barlow"},
		{ID: 1, Title: "Ken Barlow"},
		{ID: 5, Title: "Rita Tanner"},
	}, res.Pages)
	assert.Equal(t, []string{"Barlows", "Residents"}, res.Subcategories)
	assert.Equal(t, 2, wiki.callCount(), "each category must be walked once")

	assert.Equal(t, []domain.PageRef{{ID: 1, Title: "Ken Barlow"}, {ID: 5, Title: "Rita Tanner"}}, res.PagesByCategory["Residents"])
	assert.Equal(t, []domain.PageRef{{ID: 2, Title: "Deirdre Barlow"}, {ID: 1, Title: "Ken Barlow"}}, res.PagesByCategory["Barlows"])
}

func TestWalker_NonRecursiveDoesNotFollowSubcategories(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("Category:Residents", "", members(subcat(100, "Barlows"), page(1, "Ken Barlow")))

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	res, err := w.Discover(context.Background(), []string{"Residents"}, false)
	require.NoError(t, err)

	assert.Equal(t, []domain.PageRef{{ID: 1, Title: "Ken Barlow"}}, res.Pages)
	assert.Equal(t, []string{"Barlows"}, res.Subcategories)
	assert.Equal(t, 1, wiki.callCount())
}

func TestWalker_Idempotent(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("Category:Residents", "", members(subcat(100, "Barlows"), page(1, "Ken Barlow")))
	wiki.on("Category:Barlows", "", members(page(2, "Deirdre Barlow"), page(1, "Ken Barlow")))

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())
	ctx := context.Background()

	first, err := w.Discover(ctx, []string{"Residents"}, true)
	require.NoError(t, err)
	second, err := w.Discover(ctx, []string{"Residents"}, true)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated walk differs (-first +second):\n%s", diff)
	}
}

func TestWalker_SeedsNormalizedAndDeduplicated(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("Category:Coronation Street characters", "", members(page(1, "Ken Barlow")))

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	res, err := w.Discover(context.Background(), []string{
		"Coronation_Street_characters",
		"category:Coronation  Street characters",
		"",
	}, false)
	require.NoError(t, err)
	assert.Len(t, res.Pages, 1)
	assert.Equal(t, 1, wiki.callCount())
}

func TestWalker_EmptyCategory(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("Category:Nobody", "", members())

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	res, err := w.Discover(context.Background(), []string{"Nobody"}, true)
	require.NoError(t, err)
	assert.Empty(t, res.Pages)
	assert.Empty(t, res.Subcategories)
	assert.Empty(t, res.Dangling)
}

func TestWalker_DanglingMemberIsNotFatal(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("Category:Residents", "", members(page(0, "Ghost"), page(-1, "Ghost"), page(3, "Hilda Ogden")))

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	res, err := w.Discover(context.Background(), []string{"Residents"}, false)
	require.NoError(t, err)
	assert.Equal(t, []domain.PageRef{{ID: 3, Title: "Hilda Ogden"}}, res.Pages)
	require.Len(t, res.Dangling, 1)
	assert.Equal(t, "Ghost", res.Dangling[0].Title)
}

func TestWalker_OtherNamespacesIgnored(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("Category:Residents", "", members(`{"pageid":9,"ns":6,"title":"File:Ken.jpg"}`, page(1, "Ken Barlow")))

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	res, err := w.Discover(context.Background(), []string{"Residents"}, true)
	require.NoError(t, err)
	assert.Equal(t, []domain.PageRef{{ID: 1, Title: "Ken Barlow"}}, res.Pages)
}

func TestWalker_TransportFaultAborts(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("Category:Residents", "", members(subcat(100, "Barlows"), page(1, "Ken Barlow")))
	wiki.failOn = "Category:Barlows"

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	res, err := w.Discover(context.Background(), []string{"Residents"}, true)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.NotErrorIs(t, err, domain.ErrMissingPage)
}

func TestWalker_StuckContinuationIsTransportFault(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	body := `{"continue":{"cmcontinue":"same","continue":"-||"},"query":{"categorymembers":[]}}`
	wiki.on("Category:Loop", "", body)
	wiki.on("Category:Loop", "same", body)

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	_, err := w.Discover(context.Background(), []string{"Loop"}, false)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestWalker_CancelledContextStopsBeforeRequest(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Discover(ctx, []string{"Residents"}, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, wiki.callCount())
}

func TestWalker_AllPages(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.on("allpages:0", "", `{"continue":{"apcontinue":"Ken","continue":"-||"},"query":{"allpages":[`+
		page(2, "Amy Barlow")+`]}}`)
	wiki.on("allpages:0", "Ken", `{"batchcomplete":"","query":{"allpages":[`+
		page(1, "Ken Barlow")+","+page(2, "Amy Barlow")+`]}}`)

	w := NewWalker(wiki, pacer.None(), 0, newTestLogger())

	refs, err := w.AllPages(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.PageRef{{ID: 2, Title: "Amy Barlow"}, {ID: 1, Title: "Ken Barlow"}}, refs)
	assert.Equal(t, "nonredirects", wiki.calls[0]["apfilterredir"])
	assert.Equal(t, "500", wiki.calls[0]["aplimit"])
}
