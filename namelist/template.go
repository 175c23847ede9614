package namelist

import "fmt"

// Entry pairs a namelist variable name with its declaration. Group
// keeps entries in the order they're declared in the template, so
// Render's per-group variable order is table-driven off the template
// itself (spec.md §4.5) rather than an incidental map iteration order.
type Entry struct {
	Name string
	Var  Var
}

// Group is a namelist group's variable declarations, in declaration
// order.
type Group []Entry

// Lookup returns the Var declared under name within g, and whether it
// was found.
func (g Group) Lookup(name string) (Var, bool) {
	for _, e := range g {
		if e.Name == name {
			return e.Var, true
		}
	}
	return Var{}, false
}

// Template is a group -> ordered variable list, matching the compact
// dataclass model in lib_utils_dataclass.py.
type Template map[string]Group

// ModelVersion keys the template registry, mirroring the Python
// registry's (model, version) tuple keys.
type ModelVersion struct {
	Model   string
	Version string
}

func (mv ModelVersion) String() string { return mv.Model + ":" + mv.Version }

var registry = map[ModelVersion]Template{
	{"hmc", "3.1.6"}: templateHMC316,
	{"hmc", "3.2.0"}: templateHMC320,
	{"hmc", "3.3.0"}: templateHMC330,
	{"s3m", "5.3.3"}: templateS3M533,
}

// ErrUnknownTemplate is returned by Get when no template is registered
// for the requested model/version pair.
type ErrUnknownTemplate struct {
	Model, Version string
}

func (e *ErrUnknownTemplate) Error() string {
	return fmt.Sprintf("namelist: no template for %s:%s", e.Model, e.Version)
}

// Get resolves a template by model and version.
func Get(model, version string) (Template, error) {
	t, ok := registry[ModelVersion{Model: model, Version: version}]
	if !ok {
		return nil, &ErrUnknownTemplate{Model: model, Version: version}
	}
	return t, nil
}

// Exists reports whether a template is registered for model/version.
func Exists(model, version string) bool {
	_, ok := registry[ModelVersion{Model: model, Version: version}]
	return ok
}
