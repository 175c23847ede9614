package process

import (
	"context"
	"fmt"
	"os"

	"github.com/c-hydro/shybox-go/ioformat"
)

// Input is what a process call receives: the primary value (one
// array, or a map[string]interface{} keyed by tile name when the
// descriptor is tile-consuming), plus every dataset-valued argument
// already resolved to its current data, plus static arguments passed
// straight through (spec.md §4.4 "Contracts").
type Input struct {
	Value interface{} // *ioformat.Grid | *ioformat.TimeSeries | string (file path) | map[string]interface{} (tile fan-in)
	Tile  string

	Deps map[string]interface{} // name -> resolved dataset value
	Args map[string]interface{} // name -> static argument
}

// Output is a process call's result: the produced value plus the tile
// name it belongs to (when the descriptor runs within one tile), or a
// map[string]interface{} keyed by new tile names when the descriptor
// is tile-producing (OutputTiles).
type Output struct {
	Value interface{}
	Tile  string
}

// WithLogger wraps f so that a shylog.Logger is injected into
// in.Args[varName] before f runs, mirroring spec.md §6's with_logger
// sibling decorator.
func WithLogger(varName string, logger interface{}, f Func) Func {
	return func(ctx context.Context, in Input) (Output, error) {
		if in.Args == nil {
			in.Args = map[string]interface{}{}
		}
		in.Args[varName] = logger
		return f(ctx, in)
	}
}

// Call is the explicit adapter pipeline (REDESIGN FLAGS "decorator
// stacks that rewrite call signatures", spec.md §9): it normalizes
// in.Value to the descriptor's declared InputType (per-tile, for a
// tile-consuming descriptor), invokes Func, normalizes the result to
// OutputType (again per-tile for a tile-producing descriptor), and
// removes any scratch file it created along the way.
func Call(ctx context.Context, name string, in Input) (Output, error) {
	d, ok := Lookup(name)
	if !ok {
		return Output{}, &ErrNotRegistered{Name: name}
	}

	normIn, cleanup, err := normalizeCallInput(name, in, d)
	if err != nil {
		return Output{}, fmt.Errorf("process: normalizing input for %q: %w", name, err)
	}
	defer cleanup()

	out, err := d.Func(ctx, normIn)
	if err != nil {
		return Output{}, err
	}

	return normalizeCallOutput(name, out, d)
}

// normalizeCallInput handles the ordinary single-value path the same
// way normalizeInput always has; for an InputTiles descriptor, in.Value
// must already be a map[string]interface{} keyed by tile name (the
// orchestrator's fan-in), and each entry is normalized independently.
func normalizeCallInput(name string, in Input, d Descriptor) (Input, func(), error) {
	if !d.InputTiles {
		return normalizeInput(in, d.InputType)
	}
	raw, ok := in.Value.(map[string]interface{})
	if !ok {
		return in, func() {}, &ErrTileRequired{Name: name}
	}
	normalized := make(map[string]interface{}, len(raw))
	var cleanups []func()
	cleanupAll := func() {
		for _, c := range cleanups {
			c()
		}
	}
	for tile, v := range raw {
		tileIn, cleanup, err := normalizeInput(Input{Value: v}, d.InputType)
		if err != nil {
			cleanupAll()
			return in, func() {}, fmt.Errorf("tile %q: %w", tile, err)
		}
		cleanups = append(cleanups, cleanup)
		normalized[tile] = tileIn.Value
	}
	in.Value = normalized
	return in, cleanupAll, nil
}

// normalizeCallOutput mirrors normalizeCallInput for the output side:
// an OutputTiles descriptor must return a map[string]interface{} keyed
// by the new tile names, each entry normalized to OutputType.
func normalizeCallOutput(name string, out Output, d Descriptor) (Output, error) {
	if !d.OutputTiles {
		return normalizeOutput(out, d.OutputType, d.OutputExt)
	}
	raw, ok := out.Value.(map[string]interface{})
	if !ok {
		return Output{}, &ErrKindMismatch{Name: name, Want: d.OutputType}
	}
	normalized := make(map[string]interface{}, len(raw))
	for tile, v := range raw {
		tileOut, err := normalizeOutput(Output{Value: v}, d.OutputType, d.OutputExt)
		if err != nil {
			return Output{}, fmt.Errorf("tile %q: %w", tile, err)
		}
		normalized[tile] = tileOut.Value
	}
	out.Value = normalized
	return out, nil
}

// normalizeInput converts in.Value to want's representation,
// returning a cleanup func that removes any scratch file it created.
func normalizeInput(in Input, want Kind) (Input, func(), error) {
	noop := func() {}
	if in.Value == nil {
		return in, noop, nil
	}

	switch want {
	case KindGrid:
		switch v := in.Value.(type) {
		case *ioformat.Grid:
			return in, noop, nil
		case string:
			g, err := (ioformat.AsciiGridCodec{}).Read(v, ioformat.Meta{})
			if err != nil {
				return in, noop, err
			}
			in.Value = g
			return in, noop, nil
		default:
			return in, noop, fmt.Errorf("process: cannot normalize %T to grid", v)
		}

	case KindTimeSeries:
		switch v := in.Value.(type) {
		case *ioformat.TimeSeries:
			return in, noop, nil
		case string:
			ts, err := ioformat.ReadTimeSeries(v)
			if err != nil {
				return in, noop, err
			}
			in.Value = ts
			return in, noop, nil
		default:
			return in, noop, fmt.Errorf("process: cannot normalize %T to timeseries", v)
		}

	case KindFile:
		switch v := in.Value.(type) {
		case string:
			return in, noop, nil
		case *ioformat.Grid:
			tmp, err := os.CreateTemp("", "shybox-process-in-*.asc")
			if err != nil {
				return in, noop, err
			}
			path := tmp.Name()
			tmp.Close()
			if err := (ioformat.AsciiGridCodec{}).Write(path, v, ioformat.Meta{}); err != nil {
				os.Remove(path)
				return in, noop, err
			}
			in.Value = path
			return in, func() { os.Remove(path) }, nil
		case *ioformat.TimeSeries:
			tmp, err := os.CreateTemp("", "shybox-process-in-*.csv")
			if err != nil {
				return in, noop, err
			}
			path := tmp.Name()
			tmp.Close()
			if err := ioformat.WriteTimeSeries(path, v); err != nil {
				os.Remove(path)
				return in, noop, err
			}
			in.Value = path
			return in, func() { os.Remove(path) }, nil
		default:
			return in, noop, fmt.Errorf("process: cannot normalize %T to file", v)
		}
	}
	return in, noop, nil
}

// normalizeOutput converts out.Value into want's representation. When
// want is KindFile and the process produced an in-memory value, it is
// written to a freshly-named scratch file using ext; that file is the
// call's real output, so it is NOT removed here.
func normalizeOutput(out Output, want Kind, ext string) (Output, error) {
	if out.Value == nil {
		return out, nil
	}

	switch want {
	case KindGrid:
		if _, ok := out.Value.(*ioformat.Grid); ok {
			return out, nil
		}
		if path, ok := out.Value.(string); ok {
			g, err := (ioformat.AsciiGridCodec{}).Read(path, ioformat.Meta{})
			if err != nil {
				return out, err
			}
			out.Value = g
			return out, nil
		}
		return out, &ErrKindMismatch{Want: want}

	case KindTimeSeries:
		if _, ok := out.Value.(*ioformat.TimeSeries); ok {
			return out, nil
		}
		if path, ok := out.Value.(string); ok {
			ts, err := ioformat.ReadTimeSeries(path)
			if err != nil {
				return out, err
			}
			out.Value = ts
			return out, nil
		}
		return out, &ErrKindMismatch{Want: want}

	case KindFile:
		if _, ok := out.Value.(string); ok {
			return out, nil
		}
		tmp, err := os.CreateTemp("", "shybox-process-out-*."+orDefault(ext, "out"))
		if err != nil {
			return out, err
		}
		path := tmp.Name()
		tmp.Close()
		switch v := out.Value.(type) {
		case *ioformat.Grid:
			if err := (ioformat.AsciiGridCodec{}).Write(path, v, ioformat.Meta{}); err != nil {
				return out, err
			}
		case *ioformat.TimeSeries:
			if err := ioformat.WriteTimeSeries(path, v); err != nil {
				return out, err
			}
		default:
			return out, &ErrKindMismatch{Want: want}
		}
		out.Value = path
		return out, nil
	}
	return out, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
