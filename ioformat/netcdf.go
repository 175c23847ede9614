package ioformat

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// NetCDFCodec reads/writes classic-format NetCDF grids, grounded
// directly on the teacher's ncfFromTemplate/readNCF pair in
// preproc.go: open the file, look up the variable's dimension lengths
// via Header.Lengths, slice out a single time record with a
// start/end pair when meta.TimeIndex >= 0, and copy through a
// strided Reader/Writer.
//
// Read returns a Grid, which carries no dimension names, so nothing is
// renamed on read and meta.DimAliases is not consulted there. Write
// names its two dimensions from meta.DimAliases["latitude"] and
// meta.DimAliases["longitude"], falling back to "latitude"/"longitude".
type NetCDFCodec struct{}

func (NetCDFCodec) Ext() string { return "nc" }

func (NetCDFCodec) Read(path string, meta Meta) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: netcdf open %s: %w", path, err)
	}
	defer f.Close()

	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("ioformat: netcdf %s: %w", path, err)
	}

	dims := ff.Header.Lengths(meta.Variable)
	if len(dims) == 0 {
		return nil, &ErrVariableNotFound{Variable: meta.Variable, Path: path}
	}

	var start, end []int
	readDims := dims
	if meta.TimeIndex >= 0 && len(dims) > 0 {
		readDims = dims[1:]
		start = make([]int, len(dims))
		end = make([]int, len(dims))
		start[0], end[0] = meta.TimeIndex, meta.TimeIndex+1
		for i := 1; i < len(dims); i++ {
			end[i] = dims[i]
		}
	}
	if len(readDims) != 2 {
		return nil, fmt.Errorf("ioformat: netcdf %s: variable %q has %d spatial dims, want 2", path, meta.Variable, len(readDims))
	}

	r := ff.Reader(meta.Variable, start, end)
	nread := readDims[0] * readDims[1]
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("ioformat: netcdf read %s variable %q: %w", path, meta.Variable, err)
	}

	g := &Grid{Rows: readDims[0], Cols: readDims[1], Data: make([]float64, nread), CellSize: 1}
	switch vals := buf.(type) {
	case []float32:
		for i, v := range vals {
			g.Data[i] = float64(v)
		}
	case []float64:
		copy(g.Data, vals)
	default:
		return nil, fmt.Errorf("ioformat: netcdf %s: unsupported element type for %q", path, meta.Variable)
	}
	return g, nil
}

// Write creates a new classic-format NetCDF file containing a single
// 2-D float32 variable on (latitude, longitude) dimensions named per
// meta.DimAliases (falling back to "latitude"/"longitude").
func (NetCDFCodec) Write(path string, g *Grid, meta Meta) error {
	latName, lonName := "latitude", "longitude"
	if v, ok := meta.DimAliases["latitude"]; ok {
		latName = v
	}
	if v, ok := meta.DimAliases["longitude"]; ok {
		lonName = v
	}
	varName := meta.Variable
	if varName == "" {
		varName = "data"
	}

	h := cdf.NewHeader([]string{latName, lonName}, []int{g.Rows, g.Cols})
	h.AddVariable(varName, []string{latName, lonName}, []float32{})
	h.AddAttribute(varName, "_FillValue", float32(g.NoData))
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ioformat: netcdf create %s: %w", path, err)
	}
	defer f.Close()

	ff, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("ioformat: netcdf header %s: %w", path, err)
	}

	vals := make([]float32, len(g.Data))
	for i, v := range g.Data {
		vals[i] = float32(v)
	}
	w := ff.Writer(varName, nil, nil)
	if _, err := w.Write(vals); err != nil {
		return fmt.Errorf("ioformat: netcdf write %s variable %q: %w", path, varName, err)
	}
	return nil
}
