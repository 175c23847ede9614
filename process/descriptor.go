// Package process implements SHYBOX's Process Registry (spec.md §4.3):
// a process-global map from name to Descriptor, populated once at
// init time, decoupling the orchestrator from the functions it chains
// together. Metadata lives on the Descriptor value itself — there is
// no runtime attribute injection onto the function value the way a
// Python decorator would do it (REDESIGN FLAGS, spec.md §9).
package process

import "context"

// Kind names the in-memory representation a process declares for its
// input or output (spec.md §4.3's input_type/output_type).
type Kind string

const (
	KindGrid       Kind = "grid"       // xarray/gdal-equivalent gridded array
	KindTimeSeries Kind = "timeseries" // pandas-equivalent table
	KindFile       Kind = "file"       // opaque bytes on disk
)

func (k Kind) defaultExt() string {
	switch k {
	case KindGrid:
		return "asc"
	case KindTimeSeries:
		return "csv"
	default:
		return ""
	}
}

// Func is the signature every registered process implements.
type Func func(ctx context.Context, in Input) (Output, error)

// Descriptor bundles a process function with the metadata the
// orchestrator and Call's adapter pipeline need: declared input/output
// representations, tile-handling flags, and a derived output
// extension for auto-named intermediate files.
//
// InputTiles marks a fan-in (break-point) process: the orchestrator
// hands it every currently in-flight tile at once, as a single
// map[string]interface{} keyed by tile name, each entry already
// normalized to InputType. OutputTiles marks a fan-out (break-point)
// process: it runs once over a single untiled value and must return a
// map[string]interface{} keyed by the new tile names, each entry
// normalized to OutputType; every following non-break-point step then
// runs once per tile until the next break point (spec.md §4.4
// run_single_ts). ContinuousSpace==false without either tile flag
// still forces a break (e.g. a whole-domain reduction).
//
// TileNameAttr, if set, names an Args key the orchestrator also
// populates with the active tile's name, for process bodies that read
// their own tile identity from a keyword argument rather than Input.Tile.
type Descriptor struct {
	Func Func

	InputType  Kind
	OutputType Kind

	InputTiles      bool
	OutputTiles     bool
	TileNameAttr    string
	ContinuousSpace bool

	OutputExt string
}

var registry = map[string]Descriptor{}

// Register inserts d into the process-global registry under name,
// deriving OutputExt from OutputType when the caller left it blank.
// Call it from an init() func, matching spec.md §4.3's "registration
// is process-global and by function name."
func Register(name string, d Descriptor) {
	if d.OutputExt == "" {
		d.OutputExt = d.OutputType.defaultExt()
	}
	registry[name] = d
}

// Lookup returns the Descriptor registered under name.
func Lookup(name string) (Descriptor, bool) {
	d, ok := registry[name]
	return d, ok
}

// Names returns every registered process name, for diagnostics.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
