package harvest

import "github.com/heartmarshall/wikibox/internal/domain"

// Matched joins a discovered page with its fetched section.
type Matched struct {
	Page    domain.PageRef
	Section domain.RawSection
}

// MatchTitles joins pages with sections by page id, in page order. Pages
// without a section are returned as missing-page warnings.
func MatchTitles(pages []domain.PageRef, sections map[int]domain.RawSection) ([]Matched, []domain.MissingPage) {
	matched := make([]Matched, 0, len(pages))
	var missing []domain.MissingPage
	for _, p := range pages {
		sec, ok := sections[p.ID]
		if !ok {
			missing = append(missing, domain.MissingPage{PageID: p.ID, Title: p.Title, Reason: "no section fetched"})
			continue
		}
		matched = append(matched, Matched{Page: p, Section: sec})
	}
	return matched, missing
}
