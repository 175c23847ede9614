package orchestrator

import "fmt"

// ErrMissingOutputDataset is returned when the chain ends with its last
// step's output still held in-memory/tmp and no external output
// dataset is configured to receive it (spec.md §4.4 failure modes).
type ErrMissingOutputDataset struct {
	Tag, Workflow string
}

func (e *ErrMissingOutputDataset) Error() string {
	return fmt.Sprintf("orchestrator: no output dataset configured for %s:%s", e.Tag, e.Workflow)
}

// ErrNoProcessesConfigured is returned when a factory is given an empty
// process list.
type ErrNoProcessesConfigured struct{}

func (e *ErrNoProcessesConfigured) Error() string {
	return "orchestrator: no processes configured"
}

// ErrVariableCoverageFailure is returned when a declared workflow
// variable does not resolve to exactly one input (and at most one
// output) under the active ensure mode.
type ErrVariableCoverageFailure struct {
	Tag, Variable string
	Reason        string
}

func (e *ErrVariableCoverageFailure) Error() string {
	return fmt.Sprintf("orchestrator: variable coverage failure for %s:%s: %s", e.Tag, e.Variable, e.Reason)
}

// ErrDependencyNormalizationConflict is returned when two dependency
// bindings for the same (tag, arg) disagree.
type ErrDependencyNormalizationConflict struct {
	Tag, Arg string
}

func (e *ErrDependencyNormalizationConflict) Error() string {
	return fmt.Sprintf("orchestrator: conflicting dependency binding for %s/%s", e.Tag, e.Arg)
}

// ErrMissingTiles is returned when a row's input handle is
// tile-partitioned and no tile is left to read: discovery found none,
// or every discovered tile failed to read under Options.OnMissingTiles
// "skip". Without "skip", a failed tile read returns that read's error.
type ErrMissingTiles struct {
	Tag, Variable string
}

func (e *ErrMissingTiles) Error() string {
	return fmt.Sprintf("orchestrator: no readable tiles for %s:%s", e.Tag, e.Variable)
}

// ErrTileFanoutArity is returned when a break-point process that is
// not itself tile-consuming (InputTiles) is reached with more than
// one tile in flight — it has no way to pick which one to run on.
type ErrTileFanoutArity struct {
	Process string
	Count   int
}

func (e *ErrTileFanoutArity) Error() string {
	return fmt.Sprintf("orchestrator: break point %q cannot run on %d in-flight tiles (not input_tiles)", e.Process, e.Count)
}

// ErrTileFanoutShape is returned when an output_tiles process does not
// return a map[string]interface{} keyed by its new tile names.
type ErrTileFanoutShape struct {
	Process string
}

func (e *ErrTileFanoutShape) Error() string {
	return fmt.Sprintf("orchestrator: break point %q is output_tiles but did not return a tile map", e.Process)
}
