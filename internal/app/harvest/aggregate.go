package harvest

import (
	"sort"
	"strings"

	"github.com/heartmarshall/wikibox/internal/domain"
)

// PlaceholderPageName is what {{PAGENAME}} normalizes to.
const PlaceholderPageName = "PAGENAME"

// Groups maps template name to page title to fields.
type Groups map[string]map[string]domain.Fields

// GroupByTemplate groups infoboxes by template. Pages that produced no
// infobox are returned, sorted by title, as empty.
func GroupByTemplate(pages []domain.PageRef, boxes []domain.Infobox) (Groups, []domain.PageRef) {
	groups := make(Groups)
	withBox := make(map[int]bool, len(boxes))
	for _, b := range boxes {
		if groups[b.Template] == nil {
			groups[b.Template] = make(map[string]domain.Fields)
		}
		groups[b.Template][b.Page.Title] = b.Fields
		withBox[b.Page.ID] = true
	}

	var empty []domain.PageRef
	for _, p := range pages {
		if !withBox[p.ID] {
			empty = append(empty, p)
		}
	}
	sort.Slice(empty, func(i, j int) bool { return empty[i].Title < empty[j].Title })
	return groups, empty
}

// Templates returns the template names in sorted order.
func (g Groups) Templates() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document returns the output shape: {title: fields} when exactly one
// template was seen, {template: {title: fields}} otherwise.
func (g Groups) Document() any {
	if len(g) == 1 {
		for _, byTitle := range g {
			return byTitle
		}
	}
	return map[string]map[string]domain.Fields(g)
}

// CleanupOptions controls Cleanup.
type CleanupOptions struct {
	// TrimSuffixes are cut from the end of scalar values.
	TrimSuffixes []string
	// KeepPlaceholders keeps fields whose value is the PAGENAME placeholder.
	KeepPlaceholders bool
}

// Cleanup drops PAGENAME placeholder fields and trims configured suffixes
// from scalar values, in place. It returns the number of fields changed
// or dropped.
func Cleanup(boxes []domain.Infobox, opts CleanupOptions) int {
	changed := 0
	for _, b := range boxes {
		for key, v := range b.Fields {
			s, ok := v.Str()
			if !ok {
				continue
			}
			if !opts.KeepPlaceholders && s == PlaceholderPageName {
				delete(b.Fields, key)
				changed++
				continue
			}
			trimmed := trimSuffixes(s, opts.TrimSuffixes)
			if trimmed != s {
				b.Fields[key] = domain.Scalar(trimmed)
				changed++
			}
		}
	}
	return changed
}

func trimSuffixes(s string, suffixes []string) string {
	for _, suf := range suffixes {
		if suf != "" && strings.HasSuffix(s, suf) {
			return strings.TrimSpace(strings.TrimSuffix(s, suf))
		}
	}
	return s
}
