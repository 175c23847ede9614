package ioformat

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/c-hydro/shybox-go/internal/zipio"
)

// CSVCodec reads/writes a rectangular table as a Grid (row-major,
// header-less, values only), used for tabular LUT dumps. Time series
// with a leading "time" column are handled separately by
// ReadTimeSeries/WriteTimeSeries, which use encoding/csv directly.
type CSVCodec struct{}

func (CSVCodec) Ext() string { return "csv" }

func (CSVCodec) Read(path string, _ Meta) (*Grid, error) {
	r, err := zipio.Reader(path, zipio.KindForPath(path))
	if err != nil {
		return nil, fmt.Errorf("ioformat: csv open %s: %w", path, err)
	}
	defer r.Close()

	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ioformat: csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return &Grid{}, nil
	}
	g := &Grid{Rows: len(rows), Cols: len(rows[0]), Data: make([]float64, len(rows)*len(rows[0])), CellSize: 1}
	for i, row := range rows {
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("ioformat: csv %s: cell (%d,%d) %q: %w", path, i, j, cell, err)
			}
			g.Set(i, j, v)
		}
	}
	return g, nil
}

func (CSVCodec) Write(path string, g *Grid, _ Meta) error {
	w, err := zipio.Writer(path, zipio.KindForPath(path))
	if err != nil {
		return fmt.Errorf("ioformat: csv create %s: %w", path, err)
	}
	defer w.Close()

	cw := csv.NewWriter(w)
	for r := 0; r < g.Rows; r++ {
		row := make([]string, g.Cols)
		for c := 0; c < g.Cols; c++ {
			row[c] = strconv.FormatFloat(g.At(r, c), 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("ioformat: csv write %s: %w", path, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
