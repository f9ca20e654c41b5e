package infobox

import (
	"regexp"
	"strings"

	"github.com/heartmarshall/wikibox/internal/domain"
)

// spanRe matches a parenthesized or bracketed span, shortest first.
var spanRe = regexp.MustCompile(`([\(\[]).*?([\)\]])`)

var brReplacer = strings.NewReplacer("<br />", "<br>", "<br/>", "<br>")

// NormalizeItem cleans a single value or list item:
//   - drops the [[ ]] link and {{ }} template markers
//   - empties every (...) or [...] span, keeping the delimiters
//   - removes the resulting "()" pairs ("[]" is kept)
//   - strips a leading bullet and surrounding whitespace
func NormalizeItem(raw string) string {
	s := strings.ReplaceAll(raw, "[[", "")
	s = strings.ReplaceAll(s, "]]", "")
	s = strings.ReplaceAll(s, "{{", "")
	s = strings.ReplaceAll(s, "}}", "")
	s = spanRe.ReplaceAllString(s, "${1}${2}")
	s = strings.ReplaceAll(s, "()", "")
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "*"))
}

// NormalizeValue runs NormalizeItem and then types the result. A value
// containing a <br> marker (any spelling) becomes a List of its trimmed
// parts; "true" and "false" in any case become a Bool; everything else
// is a Scalar.
func NormalizeValue(raw string) domain.FieldValue {
	s := NormalizeItem(raw)

	if strings.Contains(s, "<br") {
		norm := brReplacer.Replace(s)
		if strings.Contains(norm, "<br>") {
			parts := strings.Split(norm, "<br>")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return domain.List(parts...)
		}
	}

	switch {
	case strings.EqualFold(s, "true"):
		return domain.Bool(true)
	case strings.EqualFold(s, "false"):
		return domain.Bool(false)
	}
	return domain.Scalar(s)
}
