package ioformat

import (
	"fmt"
	"math"

	goshp "github.com/jonas-p/go-shp"
)

// ShapefileCodec reads/writes a Grid as a point shapefile, one point
// per grid cell, placed at (XLL+col*CellSize, YLL+row*CellSize) and
// carrying a single float attribute named by
// meta.Variable. It is grounded on the teacher's shapefile output path
// in io.go (Outputter.Output / shpFieldFromArray): the field's
// size/precision is derived from the data's magnitude the same way,
// ensuring nine significant digits survive round-tripping regardless
// of the value range.
//
// The teacher also reprojects against a model grid SR on read
// (ReadEmissionShapefiles, via github.com/ctessum/geom/proj); SHYBOX
// assumes point coordinates are already in the target CRS and leaves
// reprojection to an explicit orchestrator process instead, since a
// codec has no access to the target grid's spatial reference.
type ShapefileCodec struct{}

func (ShapefileCodec) Ext() string { return "shp" }

func (ShapefileCodec) Read(path string, meta Meta) (*Grid, error) {
	r, err := goshp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: shapefile open %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	fieldIdx := -1
	for i, f := range fields {
		if fieldNameString(f) == meta.Variable {
			fieldIdx = i
			break
		}
	}
	if fieldIdx < 0 {
		return nil, &ErrVariableNotFound{Variable: meta.Variable, Path: path}
	}

	var values []float64
	var xs, ys []float64
	for r.Next() {
		n, shape := r.Shape()
		if pt, ok := shape.(*goshp.Point); ok {
			xs = append(xs, pt.X)
			ys = append(ys, pt.Y)
		}
		var v float64
		fmt.Sscanf(r.ReadAttribute(n, fieldIdx), "%g", &v)
		values = append(values, v)
	}

	g := &Grid{Rows: len(values), Cols: 1, Data: values, CellSize: 1}
	if len(xs) > 0 {
		g.XLL, g.YLL = minFloat(xs), minFloat(ys)
	}
	return g, nil
}

func (ShapefileCodec) Write(path string, g *Grid, meta Meta) error {
	varName := meta.Variable
	if varName == "" {
		varName = "value"
	}
	w, err := goshp.Create(path, goshp.POINT)
	if err != nil {
		return fmt.Errorf("ioformat: shapefile create %s: %w", path, err)
	}
	defer w.Close()

	field := shpFieldFromArray(varName, g.Data)
	w.SetFields([]goshp.Field{field})

	for i := 0; i < len(g.Data); i++ {
		x := g.XLL + float64(i%g.Cols)*g.CellSize
		y := g.YLL + float64(i/g.Cols)*g.CellSize
		n, err := w.Write(&goshp.Point{X: x, Y: y})
		if err != nil {
			return fmt.Errorf("ioformat: shapefile write %s: %w", path, err)
		}
		if err := w.WriteAttribute(int(n), 0, g.Data[i]); err != nil {
			return fmt.Errorf("ioformat: shapefile attribute %s: %w", path, err)
		}
	}
	return nil
}

func fieldNameString(f goshp.Field) string {
	n := 0
	for n < len(f.Name) && f.Name[n] != 0 {
		n++
	}
	return string(f.Name[:n])
}

func minFloat(vs []float64) float64 {
	m := math.Inf(1)
	for _, v := range vs {
		if v < m {
			m = v
		}
	}
	return m
}

// shpFieldFromArray derives a shapefile FLOAT field wide enough to
// carry every value in d with at least nine significant digits,
// reproducing the teacher's io.go sizing rule verbatim.
func shpFieldFromArray(name string, d []float64) goshp.Field {
	const minPrecision = 9
	minExp := math.Inf(+1)
	maxExp := math.Inf(-1)
	minVal := math.Inf(1)
	for _, v := range d {
		if v == 0 {
			continue
		}
		exp := math.Log10(math.Abs(v))
		if exp < minExp {
			minExp = exp
		}
		if exp > maxExp {
			maxExp = exp
		}
		if v < minVal {
			minVal = v
		}
	}
	var precision, size uint8
	if math.IsInf(minExp, 0) {
		precision = minPrecision - 1
	} else {
		precision = uint8(math.Max(0, -1*(math.Floor(minExp)-minPrecision+1)))
	}
	if math.IsInf(maxExp, 0) || maxExp < 1 {
		size = precision + 1
	} else {
		size = uint8(math.Floor(maxExp)) + 1 + precision
	}
	if precision > 0 {
		size++
	}
	if minVal < 0 {
		size++
	}
	return goshp.FloatField(name, size, precision)
}
