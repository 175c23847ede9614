package dataset

import "fmt"

// ErrKeyUnresolvable is returned by GetKey when a required tag has no
// binding and the handle's loc_pattern is being evaluated strictly.
type ErrKeyUnresolvable struct {
	Pattern, Tag string
}

func (e *ErrKeyUnresolvable) Error() string {
	return fmt.Sprintf("dataset: key %q unresolvable, missing tag %q", e.Pattern, e.Tag)
}

// ErrNotFoundMandatory is returned by GetData when a mandatory read
// misses and no sentinel can be substituted.
type ErrNotFoundMandatory struct {
	Key string
}

func (e *ErrNotFoundMandatory) Error() string {
	return fmt.Sprintf("dataset: mandatory key %q not found", e.Key)
}

// ErrFormatMismatch is returned by WriteData when data's kind is not
// compatible with the handle's declared FileFormat.
type ErrFormatMismatch struct {
	Format string
	Kind   string
}

func (e *ErrFormatMismatch) Error() string {
	return fmt.Sprintf("dataset: cannot write %s data to file_format %q", e.Kind, e.Format)
}

// ErrCoordinateGridMismatch is returned when a read's shape conflicts
// with an already-established template array.
type ErrCoordinateGridMismatch struct {
	Key string
}

func (e *ErrCoordinateGridMismatch) Error() string {
	return fmt.Sprintf("dataset: %s does not match the dataset's established template array", e.Key)
}

// ErrEmptyAfterMask is a warning-only condition: GetData's result was
// fully masked out. Callers receiving it should treat the data return
// value as the None-equivalent (nil Grid), not as a hard error.
type ErrEmptyAfterMask struct {
	Key string
}

func (e *ErrEmptyAfterMask) Error() string {
	return fmt.Sprintf("dataset: %s is empty after masking", e.Key)
}
