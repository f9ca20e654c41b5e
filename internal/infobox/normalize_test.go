package infobox

import (
	"testing"

	"github.com/heartmarshall/wikibox/internal/domain"
)

func TestNormalizeItem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text unchanged", in: "Amy Barlow", want: "Amy Barlow"},
		{name: "empty string", in: "", want: ""},
		{name: "wiki link", in: "[[Tracy Barlow]]", want: "Tracy Barlow"},
		{name: "piped link keeps both parts", in: "[[Number 1|No. 1]]", want: "Number 1|No. 1"},
		{name: "template braces", in: "{{PAGENAME}}", want: "PAGENAME"},
		{name: "parenthetical removed", in: "Tracy Barlow (mother)", want: "Tracy Barlow"},
		{name: "square span emptied but kept", in: "Born 2003 [citation needed]", want: "Born 2003 []"},
		{name: "non-greedy span per pair", in: "a (b) c (d) e", want: "a  c  e"},
		{name: "mixed delimiters", in: "x (y] z", want: "x (] z"},
		{name: "leading bullet", in: "* Steve McDonald", want: "Steve McDonald"},
		{name: "leading bullets and spaces", in: "  ** Ken  ", want: "Ken"},
		{name: "link inside parenthetical", in: "Ken ([[father]])", want: "Ken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeItem(tt.in); got != tt.want {
				t.Errorf("NormalizeItem(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want domain.FieldValue
	}{
		{name: "scalar", in: " 3rd December 2003 ", want: domain.Scalar("3rd December 2003")},
		{name: "true any case", in: "True", want: domain.Bool(true)},
		{name: "false any case", in: "FALSE", want: domain.Bool(false)},
		{name: "bool inside link", in: "[[true]]", want: domain.Bool(true)},
		{name: "br list", in: "[[Ken Barlow]]<br>[[Deirdre Barlow]]", want: domain.List("Ken Barlow", "Deirdre Barlow")},
		{name: "mixed br spellings", in: "a<br />b<br/>c <br> d", want: domain.List("a", "b", "c", "d")},
		{name: "br list is never bool", in: "true<br>false", want: domain.List("true", "false")},
		{name: "empty", in: "", want: domain.Scalar("")},
		{name: "unrelated tag stays scalar", in: "<break>", want: domain.Scalar("<break>")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeValue(tt.in); !got.Equal(tt.want) {
				t.Errorf("NormalizeValue(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
