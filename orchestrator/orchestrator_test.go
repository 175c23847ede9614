package orchestrator

import (
	"context"
	"testing"

	"github.com/c-hydro/shybox-go/dataset"
	"github.com/c-hydro/shybox-go/internal/shytemplate"
	"github.com/c-hydro/shybox-go/internal/shytime"
	"github.com/c-hydro/shybox-go/ioformat"
	"github.com/c-hydro/shybox-go/process"
)

func init() {
	process.Register("test_scale2", process.Descriptor{
		ContinuousSpace: true,
		InputType:       process.KindGrid,
		OutputType:      process.KindGrid,
		Func: func(_ context.Context, in process.Input) (process.Output, error) {
			g := in.Value.(*ioformat.Grid)
			out := &ioformat.Grid{Rows: g.Rows, Cols: g.Cols, CellSize: g.CellSize, NoData: g.NoData}
			out.Data = make([]float64, len(g.Data))
			for i, v := range g.Data {
				out.Data[i] = v * 2
			}
			return process.Output{Value: out}, nil
		},
	})

	// test_tile_split is a fan-out break point: it splits a 4-row grid
	// into its top and bottom halves, named "north" and "south".
	process.Register("test_tile_split", process.Descriptor{
		OutputTiles: true,
		InputType:   process.KindGrid,
		OutputType:  process.KindGrid,
		Func: func(_ context.Context, in process.Input) (process.Output, error) {
			g := in.Value.(*ioformat.Grid)
			half := g.Rows / 2
			north := &ioformat.Grid{Rows: half, Cols: g.Cols, CellSize: g.CellSize, NoData: g.NoData}
			south := &ioformat.Grid{Rows: half, Cols: g.Cols, CellSize: g.CellSize, NoData: g.NoData}
			north.Data = append([]float64(nil), g.Data[:half*g.Cols]...)
			south.Data = append([]float64(nil), g.Data[half*g.Cols:]...)
			return process.Output{Value: map[string]interface{}{"north": north, "south": south}}, nil
		},
	})
}

func flatGrid(rows, cols int, fill float64) *ioformat.Grid {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = fill
	}
	return &ioformat.Grid{Rows: rows, Cols: cols, Data: data, CellSize: 1, NoData: -9999}
}

func scaleFixture(backend dataset.Backend) (in, out *dataset.Handle) {
	in = &dataset.Handle{
		LocPattern:    "precip_%Y%m%d%H%M.asc",
		FileType:      "grid_2d",
		FileFormat:    "ascii",
		FileMode:      "mandatory",
		FileIO:        "input",
		TimeSignature: dataset.SigCurrent,
		FileVariable:  []string{"precip"},
		FileNamespace: map[string]string{"test_scale2": "precip"},
		Backend:       backend,
	}
	out = &dataset.Handle{
		LocPattern:    "precip_out_%Y%m%d%H%M.asc",
		FileType:      "grid_2d",
		FileFormat:    "ascii",
		FileMode:      "mandatory",
		FileIO:        "output",
		TimeSignature: dataset.SigCurrent,
		FileVariable:  []string{"precip_out"},
		FileNamespace: map[string]string{"test_scale2": "precip_out"},
		Backend:       backend,
	}
	return in, out
}

func TestMultiTileRunsChainAndWritesOutput(t *testing.T) {
	backend := dataset.NewMemoryBackend(true)
	inHandle, outHandle := scaleFixture(backend)

	when, _ := shytime.ParsePoint("202501240400")
	if err := inHandle.WriteData(context.Background(), flatGrid(2, 2, 3), when, nil); err != nil {
		t.Fatalf("seeding input: %v", err)
	}

	o, err := MultiTile(
		map[string][]*dataset.Handle{"precip_tag": {inHandle}},
		map[string][]*dataset.Handle{"precip_tag": {outHandle}},
		nil, nil,
		Config{Processes: []StepSpec{{Process: "test_scale2"}}},
		nil,
	)
	if err != nil {
		t.Fatalf("MultiTile: %v", err)
	}

	if err := o.RunOnce(context.Background(), when); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	result, err := outHandle.GetData(context.Background(), when, false, nil)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	for i, v := range result.Data {
		if v != 6 {
			t.Errorf("Data[%d] = %v, want 6", i, v)
		}
	}
}

func TestMultiTileNoProcessesConfigured(t *testing.T) {
	backend := dataset.NewMemoryBackend(true)
	inHandle, outHandle := scaleFixture(backend)
	_, err := MultiTile(
		map[string][]*dataset.Handle{"precip_tag": {inHandle}},
		map[string][]*dataset.Handle{"precip_tag": {outHandle}},
		nil, nil, Config{}, nil,
	)
	if _, ok := err.(*ErrNoProcessesConfigured); !ok {
		t.Fatalf("got %T, want *ErrNoProcessesConfigured", err)
	}
}

func TestMultiTileVariableCoverageFailure(t *testing.T) {
	backend := dataset.NewMemoryBackend(true)
	inHandle, _ := scaleFixture(backend)
	_, err := MultiTile(
		map[string][]*dataset.Handle{"precip_tag": {inHandle}},
		map[string][]*dataset.Handle{},
		nil, nil,
		Config{Processes: []StepSpec{{Process: "test_scale2"}}},
		nil,
	)
	if _, ok := err.(*ErrVariableCoverageFailure); !ok {
		t.Fatalf("got %T, want *ErrVariableCoverageFailure", err)
	}
}

func TestMapperGetRowsByPriorityOrdersPriorityFirst(t *testing.T) {
	inMap := map[string]map[string]string{
		"a": {"temp": "wf_temp"},
		"b": {"precip": "wf_precip"},
	}
	outMap := map[string]map[string]string{
		"a": {"wf_temp": "temp_out"},
		"b": {"wf_precip": "precip_out"},
	}
	m := NewMapper(inMap, outMap, nil)
	rows := m.GetRowsByPriority([]string{"precip"}, "in")
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].In != "precip" {
		t.Errorf("rows[0].In = %q, want precip (priority first)", rows[0].In)
	}
}

func TestMultiTileBreakPointFansOutPerTile(t *testing.T) {
	backend := dataset.NewMemoryBackend(true)
	inHandle, _ := scaleFixture(backend)
	outHandle := &dataset.Handle{
		LocPattern:    "precip_out_{tile}_%Y%m%d%H%M.asc",
		FileType:      "grid_2d",
		FileFormat:    "ascii",
		FileMode:      "mandatory",
		FileIO:        "output",
		TimeSignature: dataset.SigCurrent,
		FileVariable:  []string{"precip_out"},
		FileNamespace: map[string]string{"test_scale2": "precip_out"},
		Backend:       backend,
	}

	when, _ := shytime.ParsePoint("202501240400")
	if err := inHandle.WriteData(context.Background(), flatGrid(4, 2, 5), when, nil); err != nil {
		t.Fatalf("seeding input: %v", err)
	}

	o, err := MultiTile(
		map[string][]*dataset.Handle{"precip_tag": {inHandle}},
		map[string][]*dataset.Handle{"precip_tag": {outHandle}},
		nil, nil,
		Config{Processes: []StepSpec{{Process: "test_tile_split"}, {Process: "test_scale2"}}},
		nil,
	)
	if err != nil {
		t.Fatalf("MultiTile: %v", err)
	}
	if err := o.RunOnce(context.Background(), when); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	for _, tile := range []string{"north", "south"} {
		result, err := outHandle.GetData(context.Background(), when, false, shytemplate.TagMap{"tile": tile})
		if err != nil {
			t.Fatalf("reading tile %q: %v", tile, err)
		}
		if result.Rows != 2 || result.Cols != 2 {
			t.Fatalf("tile %q shape = %dx%d, want 2x2", tile, result.Rows, result.Cols)
		}
		for i, v := range result.Data {
			if v != 10 {
				t.Errorf("tile %q Data[%d] = %v, want 10", tile, i, v)
			}
		}
	}
}

func tileFixture(backend dataset.Backend) (in, out *dataset.Handle) {
	in = &dataset.Handle{
		LocPattern:    "{tile}/precip_%Y%m%d%H%M.asc",
		FileType:      "grid_2d",
		FileFormat:    "ascii",
		FileMode:      "mandatory",
		FileIO:        "input",
		TimeSignature: dataset.SigCurrent,
		FileVariable:  []string{"precip"},
		FileNamespace: map[string]string{"test_scale2": "precip"},
		Backend:       backend,
	}
	out = &dataset.Handle{
		LocPattern:    "out/{tile}/precip_%Y%m%d%H%M.asc",
		FileType:      "grid_2d",
		FileFormat:    "ascii",
		FileMode:      "mandatory",
		FileIO:        "output",
		TimeSignature: dataset.SigCurrent,
		FileVariable:  []string{"precip_out"},
		FileNamespace: map[string]string{"test_scale2": "precip_out"},
		Backend:       backend,
	}
	return in, out
}

func TestMultiTileDiscoversTilesFromInputHandle(t *testing.T) {
	backend := dataset.NewMemoryBackend(true)
	inHandle, outHandle := tileFixture(backend)
	when, _ := shytime.ParsePoint("202501240400")

	if err := inHandle.WriteData(context.Background(), flatGrid(2, 2, 3), when, shytemplate.TagMap{"tile": "north"}); err != nil {
		t.Fatalf("seeding north: %v", err)
	}
	if err := inHandle.WriteData(context.Background(), flatGrid(2, 2, 7), when, shytemplate.TagMap{"tile": "south"}); err != nil {
		t.Fatalf("seeding south: %v", err)
	}

	o, err := MultiTile(
		map[string][]*dataset.Handle{"precip_tag": {inHandle}},
		map[string][]*dataset.Handle{"precip_tag": {outHandle}},
		nil, nil,
		Config{Processes: []StepSpec{{Process: "test_scale2"}}},
		nil,
	)
	if err != nil {
		t.Fatalf("MultiTile: %v", err)
	}
	if err := o.RunOnce(context.Background(), when); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	north, err := outHandle.GetData(context.Background(), when, false, shytemplate.TagMap{"tile": "north"})
	if err != nil {
		t.Fatalf("reading north: %v", err)
	}
	for i, v := range north.Data {
		if v != 6 {
			t.Errorf("north Data[%d] = %v, want 6", i, v)
		}
	}
	south, err := outHandle.GetData(context.Background(), when, false, shytemplate.TagMap{"tile": "south"})
	if err != nil {
		t.Fatalf("reading south: %v", err)
	}
	for i, v := range south.Data {
		if v != 14 {
			t.Errorf("south Data[%d] = %v, want 14", i, v)
		}
	}
}

func TestMultiTileSkipsUnreadableDiscoveredTile(t *testing.T) {
	backend := dataset.NewMemoryBackend(true)
	inHandle, outHandle := tileFixture(backend)
	when, _ := shytime.ParsePoint("202501240400")

	if err := inHandle.WriteData(context.Background(), flatGrid(2, 2, 3), when, shytemplate.TagMap{"tile": "north"}); err != nil {
		t.Fatalf("seeding north: %v", err)
	}
	ghostKey, err := inHandle.GetKey(when, shytemplate.TagMap{"tile": "ghost"})
	if err != nil {
		t.Fatalf("resolving ghost key: %v", err)
	}
	wc, err := backend.Write(context.Background(), ghostKey)
	if err != nil {
		t.Fatalf("writing ghost key: %v", err)
	}
	if _, err := wc.Write([]byte("not a grid")); err != nil {
		t.Fatalf("writing ghost bytes: %v", err)
	}
	if err := wc.Close(); err != nil {
		t.Fatalf("closing ghost writer: %v", err)
	}

	o, err := MultiTile(
		map[string][]*dataset.Handle{"precip_tag": {inHandle}},
		map[string][]*dataset.Handle{"precip_tag": {outHandle}},
		nil, nil,
		Config{Processes: []StepSpec{{Process: "test_scale2"}}, Options: Options{OnMissingTiles: "skip"}},
		nil,
	)
	if err != nil {
		t.Fatalf("MultiTile: %v", err)
	}
	if err := o.RunOnce(context.Background(), when); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	north, err := outHandle.GetData(context.Background(), when, false, shytemplate.TagMap{"tile": "north"})
	if err != nil {
		t.Fatalf("reading north: %v", err)
	}
	for i, v := range north.Data {
		if v != 6 {
			t.Errorf("north Data[%d] = %v, want 6", i, v)
		}
	}

	ghostOutKey, err := outHandle.GetKey(when, shytemplate.TagMap{"tile": "ghost"})
	if err != nil {
		t.Fatalf("resolving ghost output key: %v", err)
	}
	if ok, _ := backend.Check(context.Background(), ghostOutKey); ok {
		t.Error("ghost tile should have been skipped, not written")
	}
}
