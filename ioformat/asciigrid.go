package ioformat

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/c-hydro/shybox-go/internal/zipio"
)

// AsciiGridCodec reads/writes the six-line ESRI ASCII grid format
// (spec.md §6): ncols, nrows, xllcorner, yllcorner, cellsize,
// NODATA_value, followed by nrows lines of ncols row-major floats.
// Rows are stored and returned in file order; the ESRI layout lists the
// northernmost row first, so row 0 is the northernmost row. The reader
// does not detect or swap an inverted orientation.
type AsciiGridCodec struct{}

func (AsciiGridCodec) Ext() string { return "asc" }

var asciiHeaderKeys = []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value"}

func (AsciiGridCodec) Read(path string, _ Meta) (*Grid, error) {
	r, err := zipio.Reader(path, zipio.KindForPath(path))
	if err != nil {
		return nil, fmt.Errorf("ioformat: ascii grid open %s: %w", path, err)
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	header := map[string]float64{}
	for len(header) < len(asciiHeaderKeys) {
		if !sc.Scan() {
			return nil, fmt.Errorf("ioformat: ascii grid %s: truncated header", path)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, fmt.Errorf("ioformat: ascii grid %s: malformed header line %q", path, sc.Text())
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("ioformat: ascii grid %s: header value %q: %w", path, fields[1], err)
		}
		header[strings.ToLower(fields[0])] = v
	}

	g := &Grid{
		Cols:     int(header["ncols"]),
		Rows:     int(header["nrows"]),
		XLL:      header["xllcorner"],
		YLL:      header["yllcorner"],
		CellSize: header["cellsize"],
		NoData:   header["nodata_value"],
		Data:     make([]float64, int(header["ncols"])*int(header["nrows"])),
	}

	idx := 0
	for sc.Scan() {
		line := strings.Fields(sc.Text())
		if len(line) == 0 {
			continue
		}
		for _, tok := range line {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("ioformat: ascii grid %s: value %q: %w", path, tok, err)
			}
			if idx >= len(g.Data) {
				return nil, fmt.Errorf("ioformat: ascii grid %s: more values than ncols*nrows", path)
			}
			g.Data[idx] = v
			idx++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ioformat: ascii grid %s: %w", path, err)
	}
	if idx != len(g.Data) {
		return nil, fmt.Errorf("ioformat: ascii grid %s: expected %d values, got %d", path, len(g.Data), idx)
	}
	return g, nil
}

func (AsciiGridCodec) Write(path string, g *Grid, _ Meta) error {
	w, err := zipio.Writer(path, zipio.KindForPath(path))
	if err != nil {
		return fmt.Errorf("ioformat: ascii grid create %s: %w", path, err)
	}
	defer w.Close()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", g.Cols)
	fmt.Fprintf(bw, "nrows %d\n", g.Rows)
	fmt.Fprintf(bw, "xllcorner %v\n", g.XLL)
	fmt.Fprintf(bw, "yllcorner %v\n", g.YLL)
	fmt.Fprintf(bw, "cellsize %v\n", g.CellSize)
	fmt.Fprintf(bw, "NODATA_value %v\n", g.NoData)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if c > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%v", g.At(r, c))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
