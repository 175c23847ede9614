package process

import (
	"context"
	"fmt"
	"sort"

	"github.com/c-hydro/shybox-go/internal/shytime"
	"github.com/c-hydro/shybox-go/ioformat"
)

func init() {
	Register("join", Descriptor{
		Func:            joinFunc,
		InputType:       KindTimeSeries,
		OutputType:      KindTimeSeries,
		ContinuousSpace: true,
	})
}

// joinFunc left-joins in.Value onto in.Deps["ref"]'s time axis,
// renaming in.Value's columns per in.Args["rename"] (old name -> new
// name) and filling unmatched cells with in.Args["fill_value"].
// Ported from original_source/shybox/processing_ts_toolkit/lib_proc_join.py's
// join_time_series_by_registry: sort by time, drop duplicate
// timestamps keeping the last, rename columns by section registry.
func joinFunc(_ context.Context, in Input) (Output, error) {
	data, ok := in.Value.(*ioformat.TimeSeries)
	if !ok {
		return Output{}, fmt.Errorf("process: join: input is not a time series")
	}

	fillValue := -9999.0
	if v, ok := in.Args["fill_value"].(float64); ok {
		fillValue = v
	}
	rename, _ := in.Args["rename"].(map[string]string)

	sorted := sortAndDedupe(data)
	columns := make([]string, len(sorted.Columns))
	for i, c := range sorted.Columns {
		if newName, ok := rename[c]; ok {
			columns[i] = newName
		} else {
			columns[i] = c
		}
	}

	refVal, hasRef := in.Deps["ref"]
	if !hasRef {
		sorted.Columns = columns
		return Output{Value: sorted, Tile: in.Tile}, nil
	}
	ref, ok := refVal.(*ioformat.TimeSeries)
	if !ok {
		return Output{}, fmt.Errorf("process: join: %q dependency is not a time series", "ref")
	}

	byTime := map[shytime.Point][]float64{}
	for i, t := range sorted.Times {
		byTime[t] = sorted.Values[i]
	}

	out := &ioformat.TimeSeries{
		Times:   ref.Times,
		Columns: columns,
		Values:  make([][]float64, len(ref.Times)),
	}
	for i, t := range ref.Times {
		if vals, ok := byTime[t]; ok {
			out.Values[i] = vals
			continue
		}
		row := make([]float64, len(columns))
		for j := range row {
			row[j] = fillValue
		}
		out.Values[i] = row
	}
	return Output{Value: out, Tile: in.Tile}, nil
}

func sortAndDedupe(ts *ioformat.TimeSeries) *ioformat.TimeSeries {
	type row struct {
		t shytime.Point
		v []float64
	}
	rows := make([]row, len(ts.Times))
	for i := range ts.Times {
		rows[i] = row{t: ts.Times[i], v: ts.Values[i]}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].t.Before(rows[j].t) })

	out := &ioformat.TimeSeries{Columns: ts.Columns}
	seen := map[shytime.Point]int{}
	for _, r := range rows {
		if idx, ok := seen[r.t]; ok {
			out.Values[idx] = r.v // keep the last duplicate
			continue
		}
		seen[r.t] = len(out.Times)
		out.Times = append(out.Times, r.t)
		out.Values = append(out.Values, r.v)
	}
	return out
}
