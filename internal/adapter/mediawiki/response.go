package mediawiki

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/antonholmquist/jason"

	"github.com/heartmarshall/wikibox/internal/domain"
)

// Member is one entry of a list=categorymembers or list=allpages result.
type Member struct {
	PageID    int
	Namespace int
	Title     string
}

// Page is one entry of query.pages.
type Page struct {
	// Key is the map key under formatversion=1 (negative for missing
	// titles) or the pageid under formatversion=2.
	Key        int
	PageID     int
	Title      string
	Missing    bool
	Invalid    bool
	Content    string
	HasContent bool
}

// Members decodes query.<list> as a sequence of {pageid, ns, title}.
func Members(resp *jason.Object, list string) ([]Member, error) {
	items, err := resp.GetObjectArray("query", list)
	if err != nil {
		if _, qerr := resp.GetObject("query"); qerr != nil && isComplete(resp) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: query.%s: %w", domain.ErrTransport, list, err)
	}

	members := make([]Member, 0, len(items))
	for _, item := range items {
		title, err := item.GetString("title")
		if err != nil {
			return nil, fmt.Errorf("%w: query.%s: member without title", domain.ErrTransport, list)
		}
		id, _ := item.GetInt64("pageid")
		ns, _ := item.GetInt64("ns")
		members = append(members, Member{PageID: int(id), Namespace: int(ns), Title: title})
	}
	return members, nil
}

// Continuation returns the "continue" object of a response as request
// parameters to echo back, and whether more results are pending. A
// response without the object, or with it but lacking token, is complete.
func Continuation(resp *jason.Object, token string) (map[string]string, bool) {
	cont, err := resp.GetObject("continue")
	if err != nil {
		return nil, false
	}
	if v, err := cont.GetString(token); err != nil || v == "" {
		return nil, false
	}
	out := make(map[string]string)
	for k, v := range cont.Map() {
		if s, err := v.String(); err == nil {
			out[k] = s
		}
	}
	return out, true
}

// Pages decodes query.pages. The formatversion=1 object keyed by page id
// and the formatversion=2 array are both accepted. Results are ordered by
// Key.
func Pages(resp *jason.Object) ([]Page, error) {
	query, err := resp.GetObject("query")
	if err != nil {
		return nil, fmt.Errorf("%w: missing query: %w", domain.ErrTransport, err)
	}

	var pages []Page
	if arr, err := query.GetObjectArray("pages"); err == nil {
		for _, obj := range arr {
			p := decodePage(obj)
			p.Key = p.PageID
			pages = append(pages, p)
		}
		return pages, nil
	}

	byID, err := query.GetObject("pages")
	if err != nil {
		return nil, fmt.Errorf("%w: query.pages: %w", domain.ErrTransport, err)
	}
	for key, v := range byID.Map() {
		obj, err := v.Object()
		if err != nil {
			return nil, fmt.Errorf("%w: query.pages[%s]: %w", domain.ErrTransport, key, err)
		}
		p := decodePage(obj)
		p.Key, err = strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: query.pages key %q is not a page id", domain.ErrTransport, key)
		}
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Key < pages[j].Key })
	return pages, nil
}

func decodePage(obj *jason.Object) Page {
	var p Page
	id, _ := obj.GetInt64("pageid")
	p.PageID = int(id)
	p.Title, _ = obj.GetString("title")
	p.Missing = hasKey(obj, "missing")
	p.Invalid = hasKey(obj, "invalid")

	revs, err := obj.GetObjectArray("revisions")
	if err != nil || len(revs) == 0 {
		return p
	}
	p.Content, p.HasContent = revisionContent(revs[0])
	return p
}

// revisionContent reads slots.main["*"] (formatversion=1),
// slots.main.content (formatversion=2) or the pre-MCR top-level "*".
func revisionContent(rev *jason.Object) (string, bool) {
	if main, err := rev.GetObject("slots", "main"); err == nil {
		if s, err := main.GetString("*"); err == nil {
			return s, true
		}
		if s, err := main.GetString("content"); err == nil {
			return s, true
		}
	}
	if s, err := rev.GetString("*"); err == nil {
		return s, true
	}
	return "", false
}

// isComplete reports a batchcomplete marker in either format version.
func isComplete(resp *jason.Object) bool {
	return hasKey(resp, "batchcomplete")
}

func hasKey(obj *jason.Object, key string) bool {
	_, err := obj.GetValue(key)
	return err == nil
}
