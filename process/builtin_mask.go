package process

import (
	"context"
	"fmt"
	"math"

	"github.com/c-hydro/shybox-go/ioformat"
)

func init() {
	Register("mask", Descriptor{
		Func:            maskFunc,
		InputType:       KindGrid,
		OutputType:      KindGrid,
		ContinuousSpace: true,
	})
}

// maskFunc clips in.Value against in.Deps["ref"] (a watermark/domain
// grid), setting cells outside [min, max] to NoData, grounded on
// lib_proc_interp.py's mask_data.
func maskFunc(_ context.Context, in Input) (Output, error) {
	src, ok := in.Value.(*ioformat.Grid)
	if !ok {
		return Output{}, fmt.Errorf("process: mask: input is not a grid")
	}
	refVal, ok := in.Deps["ref"]
	if !ok {
		return Output{}, fmt.Errorf("process: mask: missing %q dependency", "ref")
	}
	ref, ok := refVal.(*ioformat.Grid)
	if !ok {
		return Output{}, fmt.Errorf("process: mask: %q dependency is not a grid", "ref")
	}
	if ref.Rows != src.Rows || ref.Cols != src.Cols {
		return Output{}, fmt.Errorf("process: mask: reference shape %dx%d does not match input %dx%d",
			ref.Rows, ref.Cols, src.Rows, src.Cols)
	}

	min, hasMin := argFloat(in.Args, "mask_value_min", 0, true)
	max, hasMax := argFloat(in.Args, "mask_value_max", 0, false)
	noData := src.NoData
	if v, ok := in.Args["mask_no_data"].(float64); ok {
		noData = v
	}

	out := *src
	out.Data = append([]float64(nil), src.Data...)
	for i, rv := range ref.Data {
		if hasMin && rv < min {
			out.Data[i] = noData
			continue
		}
		if hasMax && rv > max {
			out.Data[i] = noData
		}
	}
	return Output{Value: &out, Tile: in.Tile}, nil
}

// argFloat looks up key in args, defaulting to def when absent;
// defaultPresent controls whether an absent key is still treated as
// "present" with the default value (mask_value_min defaults to 0 the
// way lib_proc_interp.py's mask_data signature does).
func argFloat(args map[string]interface{}, key string, def float64, defaultPresent bool) (float64, bool) {
	if args == nil {
		return def, defaultPresent
	}
	v, ok := args[key]
	if !ok {
		return def, defaultPresent
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) {
		return def, defaultPresent
	}
	return f, true
}
