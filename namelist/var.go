// Package namelist implements SHYBOX's Namelist Manager (spec.md
// §4.5): rendering a Fortran namelist file from a versioned, compact
// template, ported from the dataclass-based template model in
// original_source/shybox/runner_toolkit/namelist/lib_utils_dataclass.py.
package namelist

// Var is a single namelist variable's compact declaration: either
// Mandatory (must be supplied by the caller, fatal if missing) or
// carrying a Default value used when the caller doesn't supply one.
type Var struct {
	mandatory bool
	value     interface{}
	summary   string
}

// Mandatory declares a namelist variable with no usable default.
func Mandatory(summary string) Var {
	return Var{mandatory: true, summary: summary}
}

// Default declares a namelist variable with a fallback value.
func Default(value interface{}, summary string) Var {
	return Var{value: value, summary: summary}
}

// IsMandatory reports whether v must be supplied by the caller.
func (v Var) IsMandatory() bool { return v.mandatory }

// Value returns v's default value (meaningless if IsMandatory).
func (v Var) Value() interface{} { return v.value }

// Summary returns v's short description.
func (v Var) Summary() string { return v.summary }
