package domain

import (
	"strings"
)

// categoryPrefix is the canonical name of namespace 14.
const categoryPrefix = "Category:"

// NormalizeCategory prepares a category name for use as a dedup key and as
// the cmtitle suffix:
//   - strips a leading "Category:" prefix (any case)
//   - converts underscores to spaces
//   - trims and compresses whitespace
//
// Case is preserved: MediaWiki titles are case-sensitive after the first letter.
func NormalizeCategory(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= len(categoryPrefix) && strings.EqualFold(name[:len(categoryPrefix)], categoryPrefix) {
		name = name[len(categoryPrefix):]
	}
	return CompressSpaces(strings.ReplaceAll(name, "_", " "))
}

// CategoryTitle returns the full page title of a category ("Category:<name>").
func CategoryTitle(name string) string {
	return categoryPrefix + NormalizeCategory(name)
}

// URLTitle converts a page title into its URL path form (spaces → underscores).
func URLTitle(title string) string {
	return strings.Join(strings.Fields(title), "_")
}

// CompressSpaces trims s and collapses every whitespace run into one space.
func CompressSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
