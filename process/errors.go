package process

import "fmt"

// ErrNotRegistered is returned when Call names a process absent from
// the registry.
type ErrNotRegistered struct {
	Name string
}

func (e *ErrNotRegistered) Error() string {
	return fmt.Sprintf("process: %q is not registered", e.Name)
}

// ErrNotImplemented marks a registered process descriptor whose
// science body has not been ported yet (spec.md §13 stub processes).
type ErrNotImplemented struct {
	Name string
}

func (e *ErrNotImplemented) Error() string {
	return fmt.Sprintf("process: %q is not implemented", e.Name)
}

// ErrTileRequired is returned when a tile-consuming (InputTiles)
// process is called without a map[string]interface{} fan-in value.
type ErrTileRequired struct {
	Name string
}

func (e *ErrTileRequired) Error() string {
	return fmt.Sprintf("process: %q requires a tile-indexed map input", e.Name)
}

// ErrKindMismatch is returned when a process returns a value whose
// dynamic type does not match its declared OutputType.
type ErrKindMismatch struct {
	Name string
	Want Kind
}

func (e *ErrKindMismatch) Error() string {
	return fmt.Sprintf("process: %q did not return a %s value", e.Name, e.Want)
}
