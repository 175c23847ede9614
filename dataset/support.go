package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/c-hydro/shybox-go/internal/shytime"
	"github.com/c-hydro/shybox-go/ioformat"
)

// readGridViaBackend reads through c, handing it a real filesystem path
// when backend is a LocalBackend (the common case, and the only shape
// NetCDF/GeoTIFF's underlying libraries can consume), and otherwise
// spilling the backend's bytes to a scratch file first.
func readGridViaBackend(ctx context.Context, c ioformat.Codec, backend Backend, key string, meta ioformat.Meta) (*ioformat.Grid, error) {
	if lb, ok := backend.(*LocalBackend); ok {
		return c.Read(lb.Path(key), meta)
	}

	rc, err := backend.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", key, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "shybox-read-*")
	if err != nil {
		return nil, fmt.Errorf("dataset: scratch file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, rc); err != nil {
		return nil, fmt.Errorf("dataset: staging %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("dataset: staging %s: %w", key, err)
	}
	return c.Read(tmp.Name(), meta)
}

// writeGridViaBackend mirrors readGridViaBackend for the write path:
// codecs always write to a path, which for non-local backends is a
// scratch file later copied into the backend's key.
func writeGridViaBackend(ctx context.Context, c ioformat.Codec, backend Backend, key string, g *ioformat.Grid, meta ioformat.Meta) error {
	if lb, ok := backend.(*LocalBackend); ok {
		return c.Write(lb.Path(key), g, meta)
	}

	tmp, err := os.CreateTemp("", "shybox-write-*")
	if err != nil {
		return fmt.Errorf("dataset: scratch file for %s: %w", key, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.Write(tmpPath, g, meta); err != nil {
		return err
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("dataset: reopening scratch file for %s: %w", key, err)
	}
	defer f.Close()

	wc, err := backend.Write(ctx, key)
	if err != nil {
		return fmt.Errorf("dataset: write %s: %w", key, err)
	}
	if _, err := io.Copy(wc, f); err != nil {
		wc.Close()
		return fmt.Errorf("dataset: writing %s: %w", key, err)
	}
	return wc.Close()
}

// deriveTemplateArray establishes a Handle's template array from its
// first successfully read Grid (spec.md §9 "cyclic dataset templates").
func deriveTemplateArray(g *ioformat.Grid, variables []string) *TemplateArray {
	return &TemplateArray{
		Rows: g.Rows, Cols: g.Cols,
		XLL: g.XLL, YLL: g.YLL,
		CellSize:  g.CellSize,
		NoData:    g.NoData,
		CRS:       g.CRS,
		Variables: variables,
	}
}

// templateFreeHead returns the longest prefix of a loc_pattern that
// contains no "{tag}" or "%X" template marker, truncated to the last
// complete path segment, so Backend.Walk has a concrete directory to
// enumerate under.
func templateFreeHead(pattern string) string {
	idx := len(pattern)
	if i := strings.IndexByte(pattern, '{'); i >= 0 && i < idx {
		idx = i
	}
	if i := strings.IndexByte(pattern, '%'); i >= 0 && i < idx {
		idx = i
	}
	head := pattern[:idx]
	if slash := strings.LastIndexByte(head, '/'); slash >= 0 {
		return head[:slash]
	}
	return ""
}

// digitRunRe finds contiguous digit runs long enough to plausibly be a
// timestamp (spec.md's shortest canonical layout is 8 digits, YYYYMMDD).
var digitRunRe = regexp.MustCompile(`\d{8,14}`)

// tagExtractRe turns a loc_pattern into a regexp that captures the
// value bound to tag in a concrete, already-resolved key: tag's own
// "{tag}" placeholder becomes a capturing group, every other "{other}"
// placeholder and every "%X" strftime directive becomes a
// non-capturing wildcard, and everything else is matched literally.
func tagExtractRe(pattern, tag string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); {
		switch {
		case pattern[i] == '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("dataset: unterminated tag placeholder in pattern %q", pattern)
			}
			name := pattern[i+1 : i+end]
			if name == tag {
				b.WriteString("([^/]+)")
			} else {
				b.WriteString("[^/]+")
			}
			i += end + 1
		case pattern[i] == '%' && i+1 < len(pattern):
			b.WriteString(`\d+`)
			i += 2
		default:
			b.WriteString(regexp.QuoteMeta(string(pattern[i])))
			i++
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// extractTagValues matches every key against pattern's tag-extraction
// regexp, returning the distinct values bound to tag, sorted, across
// every key that matches (spec.md §4.2 tile enumeration).
func extractTagValues(pattern, tag string, keys []string) ([]string, error) {
	re, err := tagExtractRe(pattern, tag)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, k := range keys {
		m := re.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		if v := m[1]; !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

// extractPointFromKey scans key for the first digit run that parses as
// a shytime.Point under any of the canonical layouts.
func extractPointFromKey(key string) (shytime.Point, bool) {
	for _, run := range digitRunRe.FindAllString(key, -1) {
		if p, err := shytime.ParsePoint(run); err == nil {
			return p, true
		}
	}
	return shytime.Point{}, false
}

// monthWindowSearch implements GetFirstDate/GetLastDate: it lists every
// time this handle currently has data for within [start, end] and
// returns the earliest (forward) or latest (!forward) one. Real
// deployments hold at most a few thousand files per handle, so a full
// FindTimes scan is preferred over a literal month-by-month halving
// search against the backend.
func monthWindowSearch(ctx context.Context, h *Handle, start, end shytime.Point, forward bool) (shytime.Point, bool, error) {
	times, err := h.FindTimes(ctx)
	if err != nil {
		return shytime.Point{}, false, err
	}
	var within []shytime.Point
	for _, t := range times {
		if !t.Before(start) && !t.After(end) {
			within = append(within, t)
		}
	}
	if len(within) == 0 {
		return shytime.Point{}, false, nil
	}
	sort.Slice(within, func(i, j int) bool { return within[i].Before(within[j]) })
	if forward {
		return within[0], true, nil
	}
	return within[len(within)-1], true, nil
}
