package config

import "fmt"

// ErrMissingSection is returned by Load when a mandatory top-level
// section (priority, flags, variables, or the requested application
// section) is absent (spec.md §4.1 load contract).
type ErrMissingSection struct {
	Section string
}

func (e *ErrMissingSection) Error() string {
	return fmt.Sprintf("config: missing mandatory section %q", e.Section)
}

// ErrLUTBindingMismatch is returned by Validate in strict mode when the
// LUT's key set is not a superset of format's and template's key sets.
type ErrLUTBindingMismatch struct {
	Key, Missing string
}

func (e *ErrLUTBindingMismatch) Error() string {
	return fmt.Sprintf("config: LUT key %q missing %s binding", e.Key, e.Missing)
}

// ErrPlaceholderUnresolved is returned by FillObjFromLUT in strict mode
// when a `{key}` placeholder has no effective-LUT binding.
type ErrPlaceholderUnresolved struct {
	Key string
}

func (e *ErrPlaceholderUnresolved) Error() string {
	return fmt.Sprintf("config: unresolved placeholder {%s}", e.Key)
}

// ErrEnvCastFailure is a warning-only failure from UpdateLUTFromEnv: the
// raw environment value could not be cast per its declared format, so
// the raw string was kept instead.
type ErrEnvCastFailure struct {
	Key, Format, Raw string
}

func (e *ErrEnvCastFailure) Error() string {
	return fmt.Sprintf("config: env cast failure for %q (format %q, raw %q)", e.Key, e.Format, e.Raw)
}
