package shytime

import (
	"regexp"
	"strings"
)

// directiveLayout maps strftime-style directives to the fragment of
// Go's reference time ("Mon Jan 2 15:04:05 MST 2006") that represents
// it. Only the directives SHYBOX's templates are observed to use are
// covered; an unrecognized directive is left untranslated.
var directiveLayout = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'M': "04",
	'S': "05",
	'j': "002",
}

// directiveRe detects the presence of a strftime directive in a string.
var directiveRe = regexp.MustCompile(`%[A-Za-z]`)

// HasTimeDirective reports whether s contains a "%X" strftime directive.
func HasTimeDirective(s string) bool { return directiveRe.MatchString(s) }

// ToGoLayout translates a strftime-style template into a Go reference
// time layout string. Unrecognized directives are passed through
// literally (and will simply fail to translate in Format).
func ToGoLayout(tmpl string) string {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] == '%' && i+1 < len(tmpl) {
			if layout, ok := directiveLayout[tmpl[i+1]]; ok {
				b.WriteString(layout)
				i++
				continue
			}
		}
		b.WriteByte(tmpl[i])
	}
	return b.String()
}

// Format renders p according to a strftime-style template.
func Format(p Point, tmpl string) string {
	return p.Time().Format(ToGoLayout(tmpl))
}
