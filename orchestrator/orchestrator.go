// Package orchestrator implements SHYBOX's Orchestrator (spec.md
// §4.4): a composable pipeline of process-registry calls that
// consumes dataset handles, broadcasts over variables/tiles/time, and
// writes to output dataset handles, with a break-point model for
// space/tile reshaping. Generalized from the teacher's fixed
// Calculations(...).DomainManipulator chain-of-functions style in
// run.go into an arbitrary chain of process.Descriptor calls over
// dataset.Handle, dispatched through a static break-point partition
// rather than per-cell goroutine fan-out (SHYBOX's unit of work is a
// whole grid/time-series, not a per-cell calculation).
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/c-hydro/shybox-go/dataset"
	"github.com/c-hydro/shybox-go/internal/shylog"
	"github.com/c-hydro/shybox-go/internal/shytemplate"
	"github.com/c-hydro/shybox-go/internal/shytime"
	"github.com/c-hydro/shybox-go/ioformat"
	"github.com/c-hydro/shybox-go/process"
)

// Options configures intermediate-output handling and coverage
// strictness (spec.md §3 "Orchestrator state").
type Options struct {
	// IntermediateOutput is "mem" (default) or "tmp".
	IntermediateOutput string
	// OnMissingTiles is a free-form policy tag ("skip" or "fail");
	// resolveInitialValues only inspects it when reading a tiled input.
	OnMissingTiles string
	// Mode is "strict" (default) or "lazy"; strict mode turns coverage
	// gaps (an input variable with no bound output) into
	// ErrVariableCoverageFailure, lazy mode only warns.
	Mode string
}

// Config is the factory input: the configured process chain plus
// options (spec.md §4.4 "workflow specification").
type Config struct {
	Processes []StepSpec
	Options   Options
}

// Orchestrator holds the compiled chain and bound datasets (spec.md
// §3 "Orchestrator state"): a linear list of process descriptors, the
// break-point indices, the options, the reference dataset, the
// mapper, the bound input/output maps, and the deps maps.
type Orchestrator struct {
	steps     []step
	breaks    []int
	options   Options
	reference *dataset.Handle
	mapper    *Mapper
	in, out   map[string][]*dataset.Handle
	deps      map[string]map[string]*dataset.Handle
	priority  []string
	logger    *shylog.Logger
}

// MultiTile assembles an Orchestrator that iterates the chain across
// tiles, combining domain subregions (spec.md §4.4 "multi_tile"). This
// is the orchestrator's one real assembly routine; MultiTime and
// MultiVariable delegate to it, matching
// orchestrator_handler_grid.py's OrchestratorGrid.multi_time calling
// straight through to multi_tile.
func MultiTile(inPkg, outPkg map[string][]*dataset.Handle, reference *dataset.Handle, priority []string, cfg Config, logger *shylog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = shylog.New(nil)
	}
	steps, breaks, err := buildChain(cfg.Processes)
	if err != nil {
		return nil, err
	}

	inMap, outMap := buildPairsAndProcess(inPkg, outPkg)
	if err := ensureVariables(inMap, outMap, cfg.Options.Mode); err != nil {
		return nil, err
	}

	deps := map[string]map[string]*dataset.Handle{}
	for tag, handles := range inPkg {
		for _, h := range handles {
			for name, dep := range h.FileDeps {
				if deps[tag] == nil {
					deps[tag] = map[string]*dataset.Handle{}
				}
				if existing, ok := deps[tag][name]; ok && existing != dep {
					return nil, &ErrDependencyNormalizationConflict{Tag: tag, Arg: name}
				}
				deps[tag][name] = dep
			}
		}
	}

	opts := cfg.Options
	if opts.IntermediateOutput == "" {
		opts.IntermediateOutput = "mem"
	}

	return &Orchestrator{
		steps:     steps,
		breaks:    breaks,
		options:   opts,
		reference: reference,
		mapper:    NewMapper(inMap, outMap, logger),
		in:        inPkg,
		out:       outPkg,
		deps:      deps,
		priority:  priority,
		logger:    logger,
	}, nil
}

// MultiTime assembles an Orchestrator that iterates the chain across a
// time range (spec.md §4.4 "multi_time") — assembly is identical to
// MultiTile; the time dimension is driven entirely by Run's timeRange
// argument.
func MultiTime(inPkg, outPkg map[string][]*dataset.Handle, reference *dataset.Handle, priority []string, cfg Config, logger *shylog.Logger) (*Orchestrator, error) {
	return MultiTile(inPkg, outPkg, reference, priority, cfg, logger)
}

// MultiVariable assembles an Orchestrator configured once and driven
// for each variable discovered in the input/output mapping (spec.md
// §4.4 "multi_variable") — each mapper row already corresponds to one
// variable's pipeline, so no separate assembly is needed beyond
// MultiTile's.
func MultiVariable(inPkg, outPkg map[string][]*dataset.Handle, reference *dataset.Handle, priority []string, cfg Config, logger *shylog.Logger) (*Orchestrator, error) {
	return MultiTile(inPkg, outPkg, reference, priority, cfg, logger)
}

// ensureVariables enforces that every declared workflow variable has
// exactly one input and at most one output (spec.md §4.4 bullet 1).
func ensureVariables(inMap, outMap map[string]map[string]string, mode string) error {
	strict := mode != "lazy"
	for tag, vars := range inMap {
		for variable, workflow := range vars {
			if outMap[tag][workflow] == "" {
				if strict {
					return &ErrVariableCoverageFailure{Tag: tag, Variable: variable, Reason: "no output bound to workflow " + workflow}
				}
			}
		}
	}
	return nil
}

// Run drives the chain for a single instant or across a time range
// (spec.md §4.4 "run(time)"). For a range, time steps are processed
// in chronological order (spec.md §5). An empty (inverted) range
// returns nil without running the chain.
func (o *Orchestrator) Run(ctx context.Context, timeRange shytime.Range) error {
	times := timeRange.Seq()
	if len(times) == 0 {
		return nil
	}

	var tmpDir string
	if o.options.IntermediateOutput == "tmp" {
		dir, err := os.MkdirTemp("", "shybox-orchestrator-*")
		if err != nil {
			return fmt.Errorf("orchestrator: creating temp directory: %w", err)
		}
		tmpDir = dir
		defer func() {
			if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
				o.logger.Warnf("orchestrator: cleanup of %s failed: %v", tmpDir, rmErr)
			}
		}()
	}

	for _, when := range times {
		if err := o.runSingleTS(ctx, when, tmpDir); err != nil {
			return err
		}
	}
	return nil
}

// RunOnce drives the chain for a single instant, bypassing the range
// machinery in Run; a thin convenience wrapper for callers that
// already resolved their driving time to one instant.
func (o *Orchestrator) RunOnce(ctx context.Context, when shytime.Point) error {
	var tmpDir string
	if o.options.IntermediateOutput == "tmp" {
		dir, err := os.MkdirTemp("", "shybox-orchestrator-*")
		if err != nil {
			return fmt.Errorf("orchestrator: creating temp directory: %w", err)
		}
		tmpDir = dir
		defer func() {
			if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
				o.logger.Warnf("orchestrator: cleanup of %s failed: %v", tmpDir, rmErr)
			}
		}()
	}
	return o.runSingleTS(ctx, when, tmpDir)
}

// runSingleTS partitions the chain at break points and runs each
// block across the rows the mapper resolves for this time step
// (spec.md §4.4 "run_single_ts").
func (o *Orchestrator) runSingleTS(ctx context.Context, when shytime.Point, tmpDir string) error {
	rows := o.mapper.GetRowsByPriority(o.priority, "in")
	blocks := partitionAtBreaks(o.steps, o.breaks)

	for _, row := range rows {
		if err := o.runRow(ctx, row, blocks, when, tmpDir); err != nil {
			return err
		}
	}
	return nil
}

// tileValues is the orchestrator's in-flight value set, threaded
// through a row's blocks and keyed by tile name; the blank key ("")
// means "no tile" (spec.md §4.4 run_single_ts). Before the first
// output_tiles break point — or for a row whose input was never
// tile-partitioned at all — it holds exactly one "" entry, so the
// untiled path threads a single value exactly as it always has.
type tileValues map[string]interface{}

// runRow runs every block of the chain for one mapper row, threading
// each block's output into the next block's input (spec.md §4.4
// contract: "intermediate outputs are visible to the very next
// process only"). A contiguous run of continuous-space steps runs
// once per currently in-flight tile; a break-point step (input_tiles
// and/or output_tiles, or any ContinuousSpace==false process) runs
// exactly once and reshapes the in-flight tile set.
func (o *Orchestrator) runRow(ctx context.Context, row Row, blocks [][]step, when shytime.Point, tmpDir string) error {
	inHandle := o.findHandle(o.in, row.Tag, row.In)
	if inHandle == nil {
		return &ErrVariableCoverageFailure{Tag: row.Tag, Variable: row.In, Reason: "no bound input handle"}
	}

	values, err := o.resolveInitialValues(ctx, inHandle, row, when)
	if err != nil {
		return err
	}

	for _, block := range blocks {
		if block[0].breakPoint {
			values, err = o.runBreakPoint(ctx, block[0], values, row, when)
		} else {
			values, err = o.runBlock(ctx, block, values, row, when)
		}
		if err != nil {
			return err
		}

		// Tmp intermediate-output mode materializes each in-flight tile's
		// result to a real file between blocks instead of holding it only
		// in process memory (spec.md §4.4 "if Tmp, it writes to a
		// freshly-created temporary directory whose lifetime is the run
		// call"); Mem mode (the default) leaves values as-is.
		if tmpDir != "" {
			values, err = materializeTileValues(tmpDir, values)
			if err != nil {
				return err
			}
		}
	}

	outHandle := o.findHandle(o.out, row.Tag, row.Out)
	if outHandle == nil {
		return &ErrMissingOutputDataset{Tag: row.Tag, Workflow: row.Workflow}
	}
	return o.writeRowResult(ctx, outHandle, values, when)
}

// resolveInitialValues seeds the row's initial in-flight tile set. When
// inHandle's loc_pattern is itself tile-partitioned ("{tile}"), every
// tile FindTiles can discover is read individually, honoring
// OnMissingTiles when a discovered tile's read fails; otherwise a
// single untiled read seeds the "" entry, exactly as a row was read
// before tile fan-out existed.
func (o *Orchestrator) resolveInitialValues(ctx context.Context, inHandle *dataset.Handle, row Row, when shytime.Point) (tileValues, error) {
	if !strings.Contains(inHandle.LocPattern, "{tile}") {
		value, err := inHandle.GetData(ctx, when, false, shytemplate.TagMap{"tile": row.Tag})
		if err != nil {
			return nil, err
		}
		return tileValues{"": value}, nil
	}

	tiles, err := inHandle.FindTiles(ctx, "tile")
	if err != nil {
		return nil, err
	}
	values := tileValues{}
	for _, tile := range tiles {
		value, err := inHandle.GetData(ctx, when, false, shytemplate.TagMap{"tile": tile})
		if err != nil {
			if o.options.OnMissingTiles == "skip" {
				o.logger.Warnf("orchestrator: skipping unreadable tile %q for %s:%s: %v", tile, row.Tag, row.In, err)
				continue
			}
			return nil, err
		}
		values[tile] = value
	}
	if len(values) == 0 {
		return nil, &ErrMissingTiles{Tag: row.Tag, Variable: row.In}
	}
	return values, nil
}

// runBlock runs a contiguous non-break-point block once per currently
// in-flight tile, threading that tile's value through every step of
// the block in turn (spec.md §4.4 "a contiguous block of
// continuous-space processes is executed across all available
// tiles"). A step whose Tag doesn't match row.Tag is skipped for every
// tile, same as the untiled chain always did.
func (o *Orchestrator) runBlock(ctx context.Context, block []step, values tileValues, row Row, when shytime.Point) (tileValues, error) {
	next := make(tileValues, len(values))
	for _, tile := range sortedTileKeys(values) {
		current := values[tile]
		tileName := tile
		for _, st := range block {
			if !specAppliesToTag(st.spec, row.Tag) {
				continue
			}
			in := process.Input{
				Value: current,
				Tile:  tileName,
				Args:  withTileName(st.spec.Args, st.descriptor.TileNameAttr, tileName),
				Deps:  o.resolveDeps(ctx, st.spec, row.Tag, when),
			}
			out, err := process.Call(ctx, st.spec.Process, in)
			if err != nil {
				return nil, err
			}
			current = out.Value
			if out.Tile != "" {
				tileName = out.Tile
			}
		}
		next[tileName] = current
	}
	return next, nil
}

// runBreakPoint runs a single break-point step exactly once, reshaping
// the in-flight tile set (spec.md §4.4): an input_tiles descriptor
// fans in every in-flight tile as one map[string]interface{}; an
// output_tiles descriptor fans out from a single in-flight value into
// a fresh map[string]interface{} of tiles; any other break (a
// ContinuousSpace==false whole-domain process) just runs on a single
// in-flight value unchanged. Reaching a non-input_tiles break with
// more than one tile in flight is a configuration error — there is no
// way to pick which one to run on.
func (o *Orchestrator) runBreakPoint(ctx context.Context, st step, values tileValues, row Row, when shytime.Point) (tileValues, error) {
	if !specAppliesToTag(st.spec, row.Tag) {
		return values, nil
	}

	if st.descriptor.InputTiles {
		in := process.Input{
			Value: map[string]interface{}(values),
			Args:  st.spec.Args,
			Deps:  o.resolveDeps(ctx, st.spec, row.Tag, when),
		}
		out, err := process.Call(ctx, st.spec.Process, in)
		if err != nil {
			return nil, err
		}
		if st.descriptor.OutputTiles {
			fanned, ok := out.Value.(map[string]interface{})
			if !ok {
				return nil, &ErrTileFanoutShape{Process: st.spec.Process}
			}
			return tileValues(fanned), nil
		}
		return tileValues{out.Tile: out.Value}, nil
	}

	if len(values) != 1 {
		return nil, &ErrTileFanoutArity{Process: st.spec.Process, Count: len(values)}
	}
	var single interface{}
	var tileName string
	for k, v := range values {
		single, tileName = v, k
	}

	in := process.Input{
		Value: single,
		Tile:  tileName,
		Args:  withTileName(st.spec.Args, st.descriptor.TileNameAttr, tileName),
		Deps:  o.resolveDeps(ctx, st.spec, row.Tag, when),
	}
	out, err := process.Call(ctx, st.spec.Process, in)
	if err != nil {
		return nil, err
	}

	if st.descriptor.OutputTiles {
		fanned, ok := out.Value.(map[string]interface{})
		if !ok {
			return nil, &ErrTileFanoutShape{Process: st.spec.Process}
		}
		return tileValues(fanned), nil
	}

	if out.Tile != "" {
		tileName = out.Tile
	}
	return tileValues{tileName: out.Value}, nil
}

// withTileName returns a shallow copy of args with attr set to
// tileName, for a TileNameAttr-declaring descriptor that reads its own
// tile identity from a keyword argument; args is returned unmodified
// when attr is empty.
func withTileName(args map[string]interface{}, attr, tileName string) map[string]interface{} {
	if attr == "" {
		return args
	}
	out := make(map[string]interface{}, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	out[attr] = tileName
	return out
}

// sortedTileKeys returns values' keys in sorted order, so tile
// processing order (and therefore log/error ordering) is deterministic
// run to run.
func sortedTileKeys(values tileValues) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// resolveDeps resolves a step's declared Deps handles to their
// current data at the driving time (spec.md §4.4 contract: "every
// dataset-valued argument resolved to its current data at the current
// driving time").
func (o *Orchestrator) resolveDeps(ctx context.Context, spec StepSpec, tag string, when shytime.Point) map[string]interface{} {
	if len(spec.Deps) == 0 && len(o.deps[tag]) == 0 {
		return nil
	}
	resolved := map[string]interface{}{}
	for name, h := range spec.Deps {
		if v, err := h.GetData(ctx, when, false, nil); err == nil {
			resolved[name] = v
		}
	}
	for name, h := range o.deps[tag] {
		if _, ok := resolved[name]; ok {
			continue
		}
		if v, err := h.GetData(ctx, when, false, nil); err == nil {
			resolved[name] = v
		}
	}
	if o.reference != nil {
		if v, err := o.reference.GetData(ctx, when, false, nil); err == nil {
			resolved["ref"] = v
		}
	}
	return resolved
}

// writeRowResult writes every in-flight tile's final value to h,
// tagged with that tile's own name (the blank name for an untiled
// row, preserving the original single-write behavior exactly).
func (o *Orchestrator) writeRowResult(ctx context.Context, h *dataset.Handle, values tileValues, when shytime.Point) error {
	for _, tile := range sortedTileKeys(values) {
		grid, ok := values[tile].(*ioformat.Grid)
		if !ok {
			return fmt.Errorf("orchestrator: chain produced %T for %s, want *ioformat.Grid", values[tile], h.LocPattern)
		}
		if err := h.WriteData(ctx, grid, when, shytemplate.TagMap{"tile": tile}); err != nil {
			return err
		}
	}
	return nil
}

// materializeTileValues applies materializeToTmp to every in-flight
// tile's value, used by the Tmp intermediate-output mode.
func materializeTileValues(dir string, values tileValues) (tileValues, error) {
	next := make(tileValues, len(values))
	for tile, v := range values {
		materialized, err := materializeToTmp(dir, v)
		if err != nil {
			return nil, err
		}
		next[tile] = materialized
	}
	return next, nil
}

// materializeToTmp round-trips an intermediate grid through a real
// file in dir, used by the Tmp intermediate-output mode.
func materializeToTmp(dir string, value interface{}) (interface{}, error) {
	grid, ok := value.(*ioformat.Grid)
	if !ok {
		return value, nil
	}
	f, err := os.CreateTemp(dir, "intermediate-*.asc")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: creating intermediate file: %w", err)
	}
	path := f.Name()
	f.Close()

	codec := ioformat.AsciiGridCodec{}
	if err := codec.Write(path, grid, ioformat.Meta{}); err != nil {
		return nil, fmt.Errorf("orchestrator: writing intermediate file %s: %w", path, err)
	}
	reloaded, err := codec.Read(path, ioformat.Meta{})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: reading back intermediate file %s: %w", path, err)
	}
	return reloaded, nil
}

func specAppliesToTag(spec StepSpec, tag string) bool {
	return spec.Tag == "" || spec.Tag == tag
}

func (o *Orchestrator) findHandle(pkg map[string][]*dataset.Handle, tag, variable string) *dataset.Handle {
	handles, ok := pkg[tag]
	if !ok {
		return nil
	}
	for _, h := range handles {
		for _, v := range h.FileVariable {
			if v == variable {
				return h
			}
		}
	}
	if len(handles) > 0 {
		return handles[0]
	}
	return nil
}
