// Package infobox extracts infobox templates from the lead section of a
// wiki page.
package infobox

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/wikibox/internal/domain"
)

// BareTemplateName names an infobox opened without a template name.
const BareTemplateName = "Infobox"

// DefaultMaxListItems caps the bullet lines read for one list field.
const DefaultMaxListItems = 20

// Options tunes the parser.
type Options struct {
	// KeepKeyCase disables lower-casing of field keys.
	KeepKeyCase bool
	// MaxListItems is the largest accepted run of bullet lines.
	MaxListItems int
}

// Fault is a recoverable parser integrity problem. The offending field is
// dropped; the rest of the text is still parsed.
type Fault struct {
	Line   int
	Field  string
	Reason string
}

func (f Fault) Error() string {
	if f.Field == "" {
		return fmt.Sprintf("line %d: %s", f.Line, f.Reason)
	}
	return fmt.Sprintf("line %d: field %q: %s", f.Line, f.Field, f.Reason)
}

func (f Fault) Unwrap() error { return domain.ErrParserIntegrity }

// Result is what one text yielded.
type Result struct {
	// Infoboxes maps template name to its fields.
	Infoboxes map[string]domain.Fields
	// Templates lists template names in the order they were opened.
	Templates []string
	Faults    []Fault
}

// Parser is a two-state line scanner: outside any infobox, or inside the
// most recently opened one.
type Parser struct {
	opts Options
}

// NewParser creates a Parser. A MaxListItems <= 0 uses DefaultMaxListItems.
func NewParser(opts Options) *Parser {
	if opts.MaxListItems <= 0 {
		opts.MaxListItems = DefaultMaxListItems
	}
	return &Parser{opts: opts}
}

// Parse scans text once, top to bottom.
func (p *Parser) Parse(text string) Result {
	res := Result{Infoboxes: make(map[string]domain.Fields)}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	active := ""
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if name, ok := openMarker(line); ok {
			if _, seen := res.Infoboxes[name]; !seen {
				res.Templates = append(res.Templates, name)
			}
			active = name
			res.Infoboxes[name] = domain.Fields{}
			continue
		}
		if !strings.HasPrefix(line, "|") {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(line[1:], "=")
		key := strings.TrimSpace(rawKey)
		if !p.opts.KeepKeyCase {
			key = strings.ToLower(key)
		}
		if key == "" {
			continue
		}

		if active == "" {
			res.Faults = append(res.Faults, Fault{Line: i + 1, Field: key, Reason: "field before infobox open marker"})
			continue
		}

		value, consumed, reason := p.fieldValue(lines, i, strings.TrimSpace(rawValue))
		if reason != "" {
			res.Faults = append(res.Faults, Fault{Line: i + 1, Field: key, Reason: reason})
		} else {
			res.Infoboxes[active][key] = value
		}
		i += consumed
	}

	return res
}

// fieldValue normalizes the value on line i. consumed is the number of
// following bullet lines that belonged to it. A non-empty reason means
// the field must be dropped.
func (p *Parser) fieldValue(lines []string, i int, raw string) (value domain.FieldValue, consumed int, reason string) {
	if strings.HasPrefix(raw, "*") {
		if strings.Count(raw, "*") > 1 {
			return domain.FieldValue{}, 0, "more than one bullet on a field line"
		}
		return domain.List(NormalizeItem(raw)), 0, ""
	}

	value = NormalizeValue(raw)
	if value.Kind() != domain.KindScalar {
		return value, 0, ""
	}

	str, _ := value.Str()
	if str == "" && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "*") {
		var items []string
		for j := i + 1; j < len(lines) && strings.HasPrefix(lines[j], "*"); j++ {
			consumed++
			items = append(items, NormalizeItem(lines[j]))
		}
		if consumed > p.opts.MaxListItems {
			return domain.FieldValue{}, consumed, fmt.Sprintf("list has %d items, limit is %d", consumed, p.opts.MaxListItems)
		}
		return domain.List(items...), consumed, ""
	}

	if strings.Contains(str, "*") {
		return domain.FieldValue{}, 0, "bullet outside list context"
	}
	return value, 0, ""
}

// openMarker reports whether line opens an infobox and returns its
// template name: the text after the marker up to the first "|" or "}}",
// with underscores as spaces and whitespace collapsed. A bare marker is
// named BareTemplateName.
func openMarker(line string) (string, bool) {
	idx := strings.Index(line, "{{Infobox")
	if idx < 0 {
		idx = strings.Index(line, "{{infobox")
	}
	if idx < 0 {
		return "", false
	}

	name := line[idx+len("{{Infobox"):]
	if cut := strings.Index(name, "|"); cut >= 0 {
		name = name[:cut]
	}
	if cut := strings.Index(name, "}}"); cut >= 0 {
		name = name[:cut]
	}
	name = domain.CompressSpaces(strings.ReplaceAll(name, "_", " "))
	if name == "" {
		return BareTemplateName, true
	}
	return name, true
}
