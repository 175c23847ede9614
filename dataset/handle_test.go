package dataset

import (
	"context"
	"testing"

	"github.com/c-hydro/shybox-go/internal/shytemplate"
	"github.com/c-hydro/shybox-go/internal/shytime"
	"github.com/c-hydro/shybox-go/ioformat"
)

func gridHandle(backend Backend) *Handle {
	return &Handle{
		LocPattern:    "data/{domain}/grid_%Y%m%d%H%M.asc",
		FileType:      "grid_2d",
		FileFormat:    "ascii",
		FileMode:      "mandatory",
		FileIO:        "input",
		TimeSignature: SigCurrent,
		FileVariable:  []string{"precip"},
		Backend:       backend,
	}
}

func sampleGrid() *ioformat.Grid {
	return &ioformat.Grid{
		Rows: 2, Cols: 2,
		Data:     []float64{1, 2, 3, 4},
		XLL:      10, YLL: 20, CellSize: 0.1,
		NoData: -9999,
	}
}

func TestGetKeyResolvesTagsAndTime(t *testing.T) {
	h := gridHandle(NewMemoryBackend(true))
	when, _ := shytime.ParsePoint("202501240400")
	key, err := h.GetKey(when, shytemplate.TagMap{"domain": "italy"})
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	want := "data/italy/grid_202501240400.asc"
	if key != want {
		t.Errorf("GetKey = %q, want %q", key, want)
	}
}

func TestGetKeyUnresolvedTag(t *testing.T) {
	h := gridHandle(NewMemoryBackend(true))
	when, _ := shytime.ParsePoint("202501240400")
	_, err := h.GetKey(when, shytemplate.TagMap{})
	if _, ok := err.(*ErrKeyUnresolvable); !ok {
		t.Fatalf("got %T, want *ErrKeyUnresolvable", err)
	}
}

func TestWriteThenGetDataRoundTrip(t *testing.T) {
	h := gridHandle(NewMemoryBackend(true))
	ctx := context.Background()
	when, _ := shytime.ParsePoint("202501240400")
	tags := shytemplate.TagMap{"domain": "italy"}

	if err := h.WriteData(ctx, sampleGrid(), when, tags); err != nil {
		t.Fatalf("WriteData: %v", err)
	}

	got, err := h.GetData(ctx, when, false, tags)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if got.Rows != 2 || got.Cols != 2 {
		t.Fatalf("got shape %dx%d, want 2x2", got.Rows, got.Cols)
	}
	if got.At(1, 1) != 4 {
		t.Errorf("At(1,1) = %v, want 4", got.At(1, 1))
	}
}

func TestGetDataMandatoryMiss(t *testing.T) {
	h := gridHandle(NewMemoryBackend(true))
	ctx := context.Background()
	when, _ := shytime.ParsePoint("202501240400")
	_, err := h.GetData(ctx, when, false, shytemplate.TagMap{"domain": "italy"})
	if _, ok := err.(*ErrNotFoundMandatory); !ok {
		t.Fatalf("got %T, want *ErrNotFoundMandatory", err)
	}
}

func TestGetDataOptionalMissReturnsNil(t *testing.T) {
	h := gridHandle(NewMemoryBackend(true))
	h.FileMode = "optional"
	ctx := context.Background()
	when, _ := shytime.ParsePoint("202501240400")
	grid, err := h.GetData(ctx, when, false, shytemplate.TagMap{"domain": "italy"})
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if grid != nil {
		t.Errorf("grid = %+v, want nil", grid)
	}
}

func TestTemplateArraySnapsSecondWrite(t *testing.T) {
	h := gridHandle(NewMemoryBackend(true))
	ctx := context.Background()
	tags := shytemplate.TagMap{"domain": "italy"}
	t1, _ := shytime.ParsePoint("202501240400")
	t2, _ := shytime.ParsePoint("202501240500")

	if err := h.WriteData(ctx, sampleGrid(), t1, tags); err != nil {
		t.Fatalf("WriteData 1: %v", err)
	}
	g2 := sampleGrid()
	g2.XLL = 999 // drifted origin must be snapped back to the template
	if err := h.WriteData(ctx, g2, t2, tags); err != nil {
		t.Fatalf("WriteData 2: %v", err)
	}

	got, err := h.GetData(ctx, t2, false, tags)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if got.XLL != 10 {
		t.Errorf("XLL = %v, want snapped to 10", got.XLL)
	}
}

func TestWriteDataRejectsShapeDriftFromTemplate(t *testing.T) {
	h := gridHandle(NewMemoryBackend(true))
	ctx := context.Background()
	tags := shytemplate.TagMap{"domain": "italy"}
	t1, _ := shytime.ParsePoint("202501240400")
	t2, _ := shytime.ParsePoint("202501240500")

	if err := h.WriteData(ctx, sampleGrid(), t1, tags); err != nil {
		t.Fatalf("WriteData 1: %v", err)
	}
	g2 := &ioformat.Grid{Rows: 3, Cols: 3, Data: make([]float64, 9), NoData: -9999}
	if err := h.WriteData(ctx, g2, t2, tags); err == nil {
		t.Fatal("expected shape-mismatch error on second write")
	}
}

func TestCopyAndMoveData(t *testing.T) {
	h := gridHandle(NewMemoryBackend(true))
	ctx := context.Background()
	tags := shytemplate.TagMap{"domain": "italy"}
	when, _ := shytime.ParsePoint("202501240400")
	if err := h.WriteData(ctx, sampleGrid(), when, tags); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	src, _ := h.GetKey(when, tags)
	dst := "data/italy/copy.asc"

	if err := h.CopyData(ctx, src, dst); err != nil {
		t.Fatalf("CopyData: %v", err)
	}
	if ok, _ := h.Backend.Check(ctx, dst); !ok {
		t.Fatal("copy destination missing")
	}
	if ok, _ := h.Backend.Check(ctx, src); !ok {
		t.Fatal("copy source should still exist")
	}

	dst2 := "data/italy/moved.asc"
	if err := h.MoveData(ctx, dst, dst2); err != nil {
		t.Fatalf("MoveData: %v", err)
	}
	if ok, _ := h.Backend.Check(ctx, dst); ok {
		t.Error("move source should no longer exist")
	}
	if ok, _ := h.Backend.Check(ctx, dst2); !ok {
		t.Error("move destination missing")
	}
}

func TestUpdateNotInPlace(t *testing.T) {
	h := gridHandle(NewMemoryBackend(true))
	updated, err := h.Update(false, "data/{domain}/other.asc", shytemplate.TagMap{"domain": "spain"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.LocPattern != "data/spain/other.asc" {
		t.Errorf("LocPattern = %q", updated.LocPattern)
	}
	if h.LocPattern == updated.LocPattern {
		t.Error("original handle should be untouched")
	}
}
