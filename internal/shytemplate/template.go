// Package shytemplate implements SHYBOX's template string resolution:
// {tag} substitution followed by strftime-style time formatting, plus
// environment-variable and home-directory expansion.
//
// Resolution is deliberately two-pass (REDESIGN FLAGS, spec.md §9):
// tags are substituted first, then any remaining "%X" directives are
// expanded against a driving time. This keeps a template like
// "{domain}/%Y/%m/{tag}" unambiguous.
package shytemplate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/c-hydro/shybox-go/internal/shytime"
)

// TagMap is a mapping from string key to scalar value (string, number,
// time point, or list). Keys are unique; iteration order is irrelevant,
// but Keys() returns them sorted for deterministic logging/tests.
type TagMap map[string]interface{}

// Keys returns the map's keys in sorted order.
func (m TagMap) Keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// String returns the string form of the value bound to key, or "" if absent.
func (m TagMap) String(key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Merge returns a new TagMap with o's entries overlaid on m's (o wins).
func (m TagMap) Merge(o TagMap) TagMap {
	out := make(TagMap, len(m)+len(o))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

var placeholderRe = regexp.MustCompile(`\{[^{}]+\}`)

// HasPlaceholder reports whether s contains an unresolved "{tag}" marker.
func HasPlaceholder(s string) bool { return placeholderRe.MatchString(s) }

// HasTemplateMarker reports whether s contains either a "{tag}" marker
// or a strftime "%X" directive — the union spec.md §9 uses to detect
// template strings.
func HasTemplateMarker(s string) bool {
	return HasPlaceholder(s) || shytime.HasTimeDirective(s)
}

// ErrUnresolvedPlaceholder is returned by Eval in strict mode when a
// "{tag}" placeholder has no binding in the supplied TagMap.
type ErrUnresolvedPlaceholder struct {
	Template, Tag string
}

func (e *ErrUnresolvedPlaceholder) Error() string {
	return fmt.Sprintf("shytemplate: unresolved placeholder {%s} in %q", e.Tag, e.Template)
}

// Eval substitutes every "{tag}" occurrence in tmpl from tags, then, if
// when is non-nil, expands any remaining strftime directives against
// it. In strict mode an unbound placeholder returns
// *ErrUnresolvedPlaceholder; in lax mode it is left in the output
// literally.
func Eval(tmpl string, tags TagMap, when *shytime.Point, strict bool) (string, error) {
	var firstErr error
	substituted := placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := match[1 : len(match)-1]
		if v, ok := tags[key]; ok {
			return fmt.Sprintf("%v", v)
		}
		if strict && firstErr == nil {
			firstErr = &ErrUnresolvedPlaceholder{Template: tmpl, Tag: key}
		}
		return match
	})
	if firstErr != nil {
		return substituted, firstErr
	}
	if when != nil && shytime.HasTimeDirective(substituted) {
		substituted = shytime.Format(*when, substituted)
	}
	return SanitizePath(substituted), nil
}

// upperEnvRe matches $NAME / ${NAME} where NAME is uppercase, matching
// the convention that lowercase tokens such as "$yyyy" must survive
// environment expansion untouched (spec.md §4.1 expand_env).
var upperEnvRe = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}|\$([A-Z_][A-Z0-9_]*)`)

// ExpandEnv expands "~", "$NAME" and "${NAME}" in s, where NAME is
// uppercase. extra overrides/augments os.Getenv for the duration of
// this call. Calling ExpandEnv twice on its own output is a no-op,
// since only uppercase names are ever recognized and already-expanded
// text does not reintroduce new $NAME tokens unless the expansion
// itself contained one verbatim.
func ExpandEnv(s string, extra map[string]string) string {
	if strings.HasPrefix(s, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			s = home + strings.TrimPrefix(s, "~")
		}
	}
	return upperEnvRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.Trim(match, "${}")
		if v, ok := extra[name]; ok {
			return v
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// SanitizePath cleans a path-like result (collapsing ".."/redundant
// separators) while leaving non-path-like strings untouched. A string
// is treated as path-like if it contains a path separator.
func SanitizePath(s string) string {
	if !strings.ContainsAny(s, `/\`) {
		return s
	}
	return filepath.Clean(s)
}
