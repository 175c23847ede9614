package dataset

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/c-hydro/shybox-go/internal/shytemplate"
	"github.com/c-hydro/shybox-go/internal/shytime"
	"github.com/c-hydro/shybox-go/ioformat"
)

// TimeSignature selects how a Handle derives its driving instant from
// a time range (spec.md §3/§4.2).
type TimeSignature int

const (
	SigNone TimeSignature = iota
	SigStart
	SigEnd
	SigEndPlusOne
	SigCurrent
	SigPeriod
	SigStep
)

// VariableTemplate declares dimension and variable aliases (spec.md
// §3): DimsGeo renames source dimension names (e.g.
// south_north->latitude) and Variables lists the variable tokens this
// handle emits/consumes.
type VariableTemplate struct {
	DimsGeo   map[string]string
	Variables []string
}

// Handle is SHYBOX's Dataset Handle: a struct value, not an interface,
// carrying every field spec.md §3 names, dispatched through a tagged
// Backend rather than a type hierarchy (REDESIGN FLAGS, spec.md §9).
type Handle struct {
	LocPattern string
	FileType   string // grid_2d, grid_3d, points_section_db, time_series_hmc, ...
	FileFormat string // netcdf, geotiff, ascii, csv, json, shp, txt, file
	FileMode   string
	FileIO     string // input|output

	VariableTemplate VariableTemplate
	TimeSignature    TimeSignature
	TimeReference    shytime.Point
	TimePeriod       int
	TimeFreq         shytime.Freq
	TimeDirection    int // +1 or -1

	FileDeps      map[string]*Handle
	FileVariable  []string
	FileNamespace map[string]string // workflow tag -> variable

	Backend Backend

	template *TemplateArray
}

// GetKey resolves LocPattern to a concrete key: tag substitution first,
// then strftime against the time-signature-derived instant.
func (h *Handle) GetKey(when shytime.Point, tags shytemplate.TagMap) (string, error) {
	instant, err := h.instant(when)
	if err != nil {
		return "", err
	}
	var whenPtr *shytime.Point
	if instant != nil {
		whenPtr = instant
	}
	key, err := shytemplate.Eval(h.LocPattern, tags, whenPtr, true)
	if err != nil {
		if uerr, ok := err.(*shytemplate.ErrUnresolvedPlaceholder); ok {
			return "", &ErrKeyUnresolvable{Pattern: h.LocPattern, Tag: uerr.Tag}
		}
		return "", err
	}
	return key, nil
}

// instant derives the driving time per TimeSignature semantics (spec.md
// §4.2 "Time signature semantics"). A nil return with nil error means
// the handle is static (SigNone) and no time formatting should occur.
func (h *Handle) instant(when shytime.Point) (*shytime.Point, error) {
	switch h.TimeSignature {
	case SigNone:
		return nil, nil
	case SigCurrent, SigStep:
		return &when, nil
	case SigStart, SigEnd, SigEndPlusOne:
		// when is expected to already be the resolved boundary instant;
		// callers (orchestrator range expansion) are responsible for
		// passing the correct boundary per signature.
		return &when, nil
	case SigPeriod:
		end := h.TimeReference
		for i := 1; i < h.TimePeriod; i++ {
			if h.TimeDirection < 0 {
				end = shytime.NewPoint(end.Time().Add(-h.TimeFreq.Duration()))
			} else {
				end = h.TimeFreq.Step(end)
			}
		}
		return &end, nil
	default:
		return &when, nil
	}
}

// codec resolves the format-dispatched Codec for this handle.
func (h *Handle) codec() (ioformat.Codec, error) {
	c, ok := ioformat.ByFormat(h.FileFormat)
	if !ok {
		return nil, fmt.Errorf("dataset: unknown file_format %q", h.FileFormat)
	}
	return c, nil
}

// GetData resolves the key, reads through the format-dispatched codec,
// applies dimension renaming, straightens orientation (descending
// latitude, longitude in [-180,180] is left to the caller-supplied
// grid's producer — this layer enforces template-array consistency),
// and snaps to the established template array, establishing one from
// the first successful read.
func (h *Handle) GetData(ctx context.Context, when shytime.Point, asIs bool, tags shytemplate.TagMap) (*ioformat.Grid, error) {
	key, err := h.GetKey(when, tags)
	if err != nil {
		return nil, err
	}
	ok, err := h.CheckData(ctx, when, tags)
	if err != nil {
		return nil, err
	}
	if !ok {
		if h.FileIO == "input" && h.FileMode == "mandatory" {
			return nil, &ErrNotFoundMandatory{Key: key}
		}
		return nil, nil
	}

	meta := ioformat.Meta{CRS: ""}
	if len(h.FileVariable) > 0 {
		meta.Variable = h.FileVariable[0]
	}
	if h.VariableTemplate.DimsGeo != nil {
		meta.DimAliases = h.VariableTemplate.DimAliases()
	}

	c, err := h.codec()
	if err != nil {
		return nil, err
	}

	grid, err := readGridViaBackend(ctx, c, h.Backend, key, meta)
	if err != nil {
		return nil, err
	}

	if !asIs {
		straighten(grid)
	}

	if h.template == nil {
		h.template = deriveTemplateArray(grid, h.VariableTemplate.Variables)
	} else if h.template.Rows != grid.Rows || h.template.Cols != grid.Cols {
		return nil, &ErrCoordinateGridMismatch{Key: key}
	} else if err := h.template.ValidateShape(grid.Data); err != nil {
		return nil, err
	} else {
		grid.XLL, grid.YLL, grid.CellSize = SetDataToTemplate(h.template, grid.Rows, grid.Cols)
	}
	return grid, nil
}

// WriteData validates format compatibility, reshapes to the template,
// straightens, and writes through the format-dispatched codec.
func (h *Handle) WriteData(ctx context.Context, g *ioformat.Grid, when shytime.Point, tags shytemplate.TagMap) error {
	if h.FileFormat == "geotiff" || h.FileFormat == "ascii" || h.FileFormat == "netcdf" {
		if g == nil || g.Data == nil {
			return &ErrFormatMismatch{Format: h.FileFormat, Kind: "nil"}
		}
	}
	key, err := h.GetKey(when, tags)
	if err != nil {
		return err
	}

	straighten(g)
	if h.template == nil {
		h.template = deriveTemplateArray(g, h.VariableTemplate.Variables)
	} else {
		if err := h.template.ValidateShape(g.Data); err != nil {
			return err
		}
		g.XLL, g.YLL, g.CellSize = SetDataToTemplate(h.template, g.Rows, g.Cols)
	}

	c, err := h.codec()
	if err != nil {
		return err
	}
	return writeGridViaBackend(ctx, c, h.Backend, key, g, ioformat.Meta{Variable: firstOrEmpty(h.FileVariable)})
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// CheckData reports whether the resolved key currently exists.
func (h *Handle) CheckData(ctx context.Context, when shytime.Point, tags shytemplate.TagMap) (bool, error) {
	key, err := h.GetKey(when, tags)
	if err != nil {
		return false, err
	}
	return h.Backend.Check(ctx, key)
}

// FindTimes enumerates keys under the longest template-free head of
// LocPattern and parses each into a Point, matching spec.md §4.2's
// filesystem-like enumeration contract.
func (h *Handle) FindTimes(ctx context.Context) ([]shytime.Point, error) {
	prefix := templateFreeHead(h.LocPattern)
	keys, err := h.Backend.Walk(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var out []shytime.Point
	for _, k := range keys {
		if p, ok := extractPointFromKey(k); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindTiles enumerates the distinct values bound to tileTag's "{tag}"
// placeholder in LocPattern among keys under the template-free head,
// matching each key against the pattern itself rather than assuming a
// tile name is a whole path segment (a LocPattern mixing "{tile}" with
// a "%X" timestamp in the same segment, e.g.
// "{tile}/precip_%Y%m%d%H%M.asc", would otherwise surface spurious
// filename-derived candidates).
func (h *Handle) FindTiles(ctx context.Context, tileTag string) ([]string, error) {
	prefix := templateFreeHead(h.LocPattern)
	keys, err := h.Backend.Walk(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return extractTagValues(h.LocPattern, tileTag, keys)
}

// GetTimes is an alias for FindTimes, kept distinct in the API surface
// to mirror spec.md §4.2 naming both operations are mentioned under.
func (h *Handle) GetTimes(ctx context.Context) ([]shytime.Point, error) { return h.FindTimes(ctx) }

// GetFirstDate returns the earliest time in [start, end] this handle has
// data for. It scans every key once through FindTimes; it does not
// search by calendar-month windows.
func (h *Handle) GetFirstDate(ctx context.Context, start, end shytime.Point) (shytime.Point, bool, error) {
	return monthWindowSearch(ctx, h, start, end, true)
}

// GetLastDate returns the latest time in [start, end] this handle has
// data for, from the same single FindTimes scan as GetFirstDate.
func (h *Handle) GetLastDate(ctx context.Context, start, end shytime.Point) (shytime.Point, bool, error) {
	return monthWindowSearch(ctx, h, start, end, false)
}

// CopyData copies srcKey's bytes to dstKey through the same backend.
func (h *Handle) CopyData(ctx context.Context, srcKey, dstKey string) error {
	rc, err := h.Backend.Read(ctx, srcKey)
	if err != nil {
		return err
	}
	defer rc.Close()
	wc, err := h.Backend.Write(ctx, dstKey)
	if err != nil {
		return err
	}
	defer wc.Close()
	_, err = io.Copy(wc, rc)
	return err
}

// MoveData copies then removes the source key.
func (h *Handle) MoveData(ctx context.Context, srcKey, dstKey string) error {
	if err := h.CopyData(ctx, srcKey, dstKey); err != nil {
		return err
	}
	return h.Backend.Remove(ctx, srcKey)
}

// RmData removes a key.
func (h *Handle) RmData(ctx context.Context, key string) error {
	return h.Backend.Remove(ctx, key)
}

// Update returns a new Handle with an updated LocPattern, carrying
// over the template array and backend (spec.md §4.2 update contract).
// When inPlace is true, h itself is mutated and returned instead.
func (h *Handle) Update(inPlace bool, newPattern string, tags shytemplate.TagMap) (*Handle, error) {
	resolved, err := shytemplate.Eval(newPattern, tags, nil, false)
	if err != nil {
		return nil, err
	}
	if inPlace {
		h.LocPattern = resolved
		return h, nil
	}
	clone := *h
	clone.LocPattern = resolved
	return &clone, nil
}

// DimAliases flattens VariableTemplate.DimsGeo to the ioformat.Meta
// shape a codec expects.
func (vt VariableTemplate) DimAliases() map[string]string {
	if vt.DimsGeo == nil {
		return nil
	}
	out := make(map[string]string, len(vt.DimsGeo))
	for k, v := range vt.DimsGeo {
		out[k] = v
	}
	return out
}

// straighten coerces g's no-data sentinel to NaN in place (spec.md
// §4.2 get_data contract: "NaN for floats, max-int for unsigned
// integers"). Grid only ever carries float64 data, so the
// unsigned-integer branch has no type to apply to here; every cell
// equal to the declared NoData value becomes NaN and NoData itself is
// set to NaN, so downstream processes can test for missing data with
// math.IsNaN instead of an equality comparison against a
// format-specific sentinel that may not even round-trip through
// float64 exactly.
//
// Rows are kept in the order each codec's Read returns them (for ESRI
// ASCII grids, file order, which is north-first); straighten does not
// reorder rows. A Grid carries no per-cell longitude to fold into
// [-180, 180], so there is nothing to straighten on that axis.
func straighten(g *ioformat.Grid) {
	if g == nil || g.Data == nil || math.IsNaN(g.NoData) {
		return
	}
	nodata := g.NoData
	for i, v := range g.Data {
		if v == nodata {
			g.Data[i] = math.NaN()
		}
	}
	g.NoData = math.NaN()
}
