package process

import (
	"context"
	"testing"

	"github.com/c-hydro/shybox-go/internal/shytime"
	"github.com/c-hydro/shybox-go/ioformat"
)

func flatGrid(rows, cols int, fill float64) *ioformat.Grid {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = fill
	}
	return &ioformat.Grid{Rows: rows, Cols: cols, Data: data, CellSize: 1, NoData: -9999}
}

func TestCallUnregistered(t *testing.T) {
	_, err := Call(context.Background(), "does_not_exist", Input{})
	if _, ok := err.(*ErrNotRegistered); !ok {
		t.Fatalf("got %T, want *ErrNotRegistered", err)
	}
}

func TestInterpNearestUpsamples(t *testing.T) {
	src := flatGrid(2, 2, 5)
	ref := flatGrid(4, 4, 0)
	out, err := Call(context.Background(), "interp", Input{
		Value: src,
		Deps:  map[string]interface{}{"ref": ref},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	g := out.Value.(*ioformat.Grid)
	if g.Rows != 4 || g.Cols != 4 {
		t.Fatalf("shape = %dx%d, want 4x4", g.Rows, g.Cols)
	}
	for i, v := range g.Data {
		if v != 5 {
			t.Errorf("Data[%d] = %v, want 5", i, v)
		}
	}
}

func TestMaskClipsBelowMin(t *testing.T) {
	src := flatGrid(2, 2, 10)
	ref := &ioformat.Grid{Rows: 2, Cols: 2, Data: []float64{1, -1, 1, -1}}
	out, err := Call(context.Background(), "mask", Input{
		Value: src,
		Deps:  map[string]interface{}{"ref": ref},
		Args:  map[string]interface{}{"mask_value_min": 0.0},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	g := out.Value.(*ioformat.Grid)
	if g.At(0, 1) != src.NoData || g.At(1, 1) != src.NoData {
		t.Errorf("masked cells not set to no-data: %v", g.Data)
	}
	if g.At(0, 0) != 10 {
		t.Errorf("unmasked cell changed: %v", g.At(0, 0))
	}
}

func TestDeriveAppliesExpression(t *testing.T) {
	src := flatGrid(1, 2, 2)
	out, err := Call(context.Background(), "derive", Input{
		Value: src,
		Args:  map[string]interface{}{"expression": "value * 3"},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	g := out.Value.(*ioformat.Grid)
	for _, v := range g.Data {
		if v != 6 {
			t.Errorf("derived value = %v, want 6", v)
		}
	}
}

func TestJoinFillsMissingWithDefault(t *testing.T) {
	t1, _ := shytime.ParsePoint("2025-01-01 00:00")
	t2, _ := shytime.ParsePoint("2025-01-01 01:00")
	data := &ioformat.TimeSeries{
		Times:   []shytime.Point{t1},
		Columns: []string{"s1"},
		Values:  [][]float64{{1.5}},
	}
	ref := &ioformat.TimeSeries{Times: []shytime.Point{t1, t2}}

	out, err := Call(context.Background(), "join", Input{
		Value: data,
		Deps:  map[string]interface{}{"ref": ref},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	ts := out.Value.(*ioformat.TimeSeries)
	if len(ts.Times) != 2 {
		t.Fatalf("len(Times) = %d, want 2", len(ts.Times))
	}
	if v, _ := ts.At(0, "s1"); v != 1.5 {
		t.Errorf("row 0 = %v, want 1.5", v)
	}
	if v, _ := ts.At(1, "s1"); v != -9999.0 {
		t.Errorf("row 1 = %v, want fill value -9999", v)
	}
}

func TestStubProcessReturnsNotImplemented(t *testing.T) {
	_, err := Call(context.Background(), "compute_humidity", Input{Value: flatGrid(1, 1, 0)})
	if _, ok := err.(*ErrNotImplemented); !ok {
		t.Fatalf("got %T, want *ErrNotImplemented", err)
	}
}

func TestInputNormalizationFileToGrid(t *testing.T) {
	Register("test_echo_grid", Descriptor{
		Func: func(_ context.Context, in Input) (Output, error) {
			g, ok := in.Value.(*ioformat.Grid)
			if !ok {
				t.Fatalf("expected normalized grid, got %T", in.Value)
			}
			return Output{Value: g}, nil
		},
		InputType:  KindGrid,
		OutputType: KindGrid,
	})

	src := flatGrid(1, 1, 42)
	// Round-trip through a file path to exercise normalizeInput's
	// string->grid branch.
	tmpOut, cleanup, err := normalizeInput(Input{Value: src}, KindFile)
	if err != nil {
		t.Fatalf("normalizeInput to file: %v", err)
	}
	defer cleanup()
	path, ok := tmpOut.Value.(string)
	if !ok {
		t.Fatalf("expected path, got %T", tmpOut.Value)
	}

	out, err := Call(context.Background(), "test_echo_grid", Input{Value: path})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	g := out.Value.(*ioformat.Grid)
	if g.At(0, 0) != 42 {
		t.Errorf("At(0,0) = %v, want 42", g.At(0, 0))
	}
}
