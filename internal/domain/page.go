package domain

import (
	"time"

	"github.com/google/uuid"
)

// MediaWiki namespace ids the harvester cares about.
const (
	NamespaceArticle  = 0
	NamespaceCategory = 14
)

// PageRef identifies a wiki page. ID is unique within one run.
type PageRef struct {
	ID    int    `json:"pageid"`
	Title string `json:"title"`
}

// RawSection is the wikitext of the first section of a page's latest revision.
type RawSection struct {
	PageID int
	Title  string
	Text   string
}

// Namespace is a site namespace as reported by meta=siteinfo.
type Namespace struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Canonical string `json:"canonical,omitempty"`
}

// Infobox is one parsed infobox template attached to its source page.
type Infobox struct {
	Template string
	Page     PageRef
	Fields   Fields
}

// HarvestRun describes one completed harvest, as persisted by the store.
type HarvestRun struct {
	ID          uuid.UUID
	Site        string
	Categories  []string
	Recursive   bool
	Pages       int
	Infoboxes   int
	Missing     int
	StartedAt   time.Time
	CompletedAt time.Time
}
