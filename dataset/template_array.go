package dataset

import (
	"github.com/ctessum/sparse"
)

// TemplateArray is the minimal, serializable axis description from
// spec.md §3: enough to rebuild an array of correct shape and
// coordinates from bare numbers, so repeated reads/writes within one
// workflow stay byte-identical rather than drifting from rounding.
type TemplateArray struct {
	Rows, Cols int
	XLL, YLL   float64
	CellSize   float64
	NoData     float64
	CRS        string
	Variables  []string
}

// Matches reports whether a candidate shape/origin is compatible with
// the established template array.
func (t *TemplateArray) Matches(rows, cols int, xll, yll, cellsize float64) bool {
	if t == nil {
		return true
	}
	return t.Rows == rows && t.Cols == cols && t.XLL == xll && t.YLL == yll && t.CellSize == cellsize
}

// SetDataToTemplate reshapes/snaps g's axis metadata to t, the
// "subsequent reads are forced through set_data_to_template" discipline
// from spec.md §4.2, so coordinate drift from minor rounding never
// accumulates across reads of the same handle.
func SetDataToTemplate(t *TemplateArray, rows, cols int) (xll, yll, cellsize float64) {
	if t == nil {
		return 0, 0, 1
	}
	_ = rows
	_ = cols
	return t.XLL, t.YLL, t.CellSize
}

// ValidateShape reports whether data's length matches the element
// count a (rows, cols) sparse.DenseArray of t's shape would allocate,
// catching a reshaped/truncated grid before it is snapped onto the
// established template's coordinates. Grounded on sparse.ZerosDense's
// own arrsize bookkeeping (vendor/bitbucket.org/ctessum/sparse) rather
// than re-deriving rows*cols by hand.
func (t *TemplateArray) ValidateShape(data []float64) error {
	if t == nil {
		return nil
	}
	want := sparse.ZerosDense(t.Rows, t.Cols)
	if len(data) != len(want.Elements) {
		return &ErrFormatMismatch{Format: "grid", Kind: "shape"}
	}
	return nil
}
