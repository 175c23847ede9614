package process

import (
	"context"
	"fmt"
	"math"

	"github.com/c-hydro/shybox-go/ioformat"
)

// Interpolation methods for the "interp" process, named after
// lib_proc_interp.py's interpolating_method values.
const (
	InterpNearest  = "nn"
	InterpBilinear = "bilinear"
)

func init() {
	Register("interp", Descriptor{
		Func:            interpFunc,
		InputType:       KindGrid,
		OutputType:      KindGrid,
		ContinuousSpace: true,
	})
}

// interpFunc resamples in.Value onto the shape of in.Deps["ref"],
// grounded on lib_proc_interp.py's interpolate_data. When the row and
// column counts already match it returns an unchanged copy (Grid
// carries no lon/lat coordinate arrays, so shape is what is compared);
// otherwise it maps indices by nearest neighbor or bilinearly.
func interpFunc(_ context.Context, in Input) (Output, error) {
	src, ok := in.Value.(*ioformat.Grid)
	if !ok {
		return Output{}, fmt.Errorf("process: interp: input is not a grid")
	}
	refVal, ok := in.Deps["ref"]
	if !ok {
		return Output{}, fmt.Errorf("process: interp: missing %q dependency", "ref")
	}
	ref, ok := refVal.(*ioformat.Grid)
	if !ok {
		return Output{}, fmt.Errorf("process: interp: %q dependency is not a grid", "ref")
	}

	if src.Rows == ref.Rows && src.Cols == ref.Cols {
		out := *src
		out.Data = append([]float64(nil), src.Data...)
		return Output{Value: &out, Tile: in.Tile}, nil
	}

	method := InterpNearest
	if m, ok := in.Args["method"].(string); ok && m != "" {
		method = m
	}

	out := &ioformat.Grid{
		Rows: ref.Rows, Cols: ref.Cols,
		XLL: ref.XLL, YLL: ref.YLL, CellSize: ref.CellSize,
		NoData: src.NoData, CRS: ref.CRS,
		Data: make([]float64, ref.Rows*ref.Cols),
	}

	rowScale := float64(src.Rows) / float64(ref.Rows)
	colScale := float64(src.Cols) / float64(ref.Cols)

	for r := 0; r < ref.Rows; r++ {
		for c := 0; c < ref.Cols; c++ {
			srcRowF := (float64(r) + 0.5) * rowScale
			srcColF := (float64(c) + 0.5) * colScale
			var v float64
			switch method {
			case InterpBilinear:
				v = bilinear(src, srcRowF, srcColF)
			default:
				v = src.At(clampIdx(int(srcRowF), src.Rows), clampIdx(int(srcColF), src.Cols))
			}
			out.Set(r, c, v)
		}
	}
	return Output{Value: out, Tile: in.Tile}, nil
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func bilinear(g *ioformat.Grid, rowF, colF float64) float64 {
	r0 := clampIdx(int(math.Floor(rowF-0.5)), g.Rows)
	c0 := clampIdx(int(math.Floor(colF-0.5)), g.Cols)
	r1 := clampIdx(r0+1, g.Rows)
	c1 := clampIdx(c0+1, g.Cols)

	fr := rowF - 0.5 - float64(r0)
	fc := colF - 0.5 - float64(c0)
	if fr < 0 {
		fr = 0
	}
	if fc < 0 {
		fc = 0
	}

	v00, v01 := g.At(r0, c0), g.At(r0, c1)
	v10, v11 := g.At(r1, c0), g.At(r1, c1)

	top := v00*(1-fc) + v01*fc
	bottom := v10*(1-fc) + v11*fc
	return top*(1-fr) + bottom*fr
}
