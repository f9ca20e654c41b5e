package harvestrun

import "github.com/google/uuid"

// Filter selects stored infobox records of one run.
type Filter struct {
	// RunID is required.
	RunID uuid.UUID

	// Template restricts results to one infobox template, matched exactly.
	Template string

	// Title performs ILIKE '%...%' on the page title.
	Title string

	// Limit caps the number of records. 0 means no limit.
	Limit uint64
}
