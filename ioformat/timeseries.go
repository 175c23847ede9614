package ioformat

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/c-hydro/shybox-go/internal/zipio"

	"github.com/c-hydro/shybox-go/internal/shytime"
)

// TimeSeries is a textual table keyed by time, one column per section
// (spec.md §6 "Time series: ... leading time column ... one column per
// section"), the representation the orchestrator's join process
// (supplemented from original_source, see DESIGN.md) consumes.
type TimeSeries struct {
	Times   []shytime.Point
	Columns []string
	Values  [][]float64 // Values[row][col]
}

// At returns the value for a given time row and column name, and
// whether the column exists.
func (ts *TimeSeries) At(row int, column string) (float64, bool) {
	for c, name := range ts.Columns {
		if name == column {
			return ts.Values[row][c], true
		}
	}
	return 0, false
}

// ReadTimeSeries parses a CSV with a leading "time" column and one
// column per section.
func ReadTimeSeries(path string) (*TimeSeries, error) {
	r, err := zipio.Reader(path, zipio.KindForPath(path))
	if err != nil {
		return nil, fmt.Errorf("ioformat: time series open %s: %w", path, err)
	}
	defer r.Close()

	rows, err := csv.NewReader(bufio.NewReader(r)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ioformat: time series %s: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("ioformat: time series %s: empty file", path)
	}

	ts := &TimeSeries{Columns: rows[0][1:]}
	for _, row := range rows[1:] {
		when, err := shytime.ParsePoint(row[0])
		if err != nil {
			return nil, fmt.Errorf("ioformat: time series %s: time column %q: %w", path, row[0], err)
		}
		vals := make([]float64, len(row)-1)
		for i, cell := range row[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("ioformat: time series %s: cell %q: %w", path, cell, err)
			}
			vals[i] = v
		}
		ts.Times = append(ts.Times, when)
		ts.Values = append(ts.Values, vals)
	}
	return ts, nil
}

// WriteTimeSeries writes ts back out in the same leading-time-column,
// one-column-per-section layout.
func WriteTimeSeries(path string, ts *TimeSeries) error {
	w, err := zipio.Writer(path, zipio.KindForPath(path))
	if err != nil {
		return fmt.Errorf("ioformat: time series create %s: %w", path, err)
	}
	defer w.Close()

	cw := csv.NewWriter(w)
	header := append([]string{"time"}, ts.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("ioformat: time series write %s: %w", path, err)
	}
	for i, when := range ts.Times {
		row := make([]string, 0, len(ts.Columns)+1)
		row = append(row, shytime.Format(when, "%Y-%m-%d %H:%M"))
		for _, v := range ts.Values[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("ioformat: time series write %s: %w", path, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
