package namelist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingMandatory is returned by Resolve when a Mandatory variable
// has no binding in either input shape.
type ErrMissingMandatory struct {
	Group, Var string
}

func (e *ErrMissingMandatory) Error() string {
	return fmt.Sprintf("namelist: mandatory variable %s.%s has no value", e.Group, e.Var)
}

// Manager renders a Fortran namelist from a (model, version) template
// plus user-supplied values (spec.md §4.5).
type Manager struct {
	Model, Version string
	tmpl           Template
	resolved       map[string]Group
}

// New resolves the template registered for model/version.
func New(model, version string) (*Manager, error) {
	t, err := Get(model, version)
	if err != nil {
		return nil, err
	}
	return &Manager{Model: model, Version: version, tmpl: t}, nil
}

// Resolve fills the template from user values supplied in either shape
// (spec.md §4.5): byValue is a flat var->value map applied wherever
// that variable name occurs in the template; byPattern is a nested
// group->var->value map applied only within the named group.
// byPattern entries take precedence over byValue on the same
// (group, var). Every Mandatory variable must end up bound;
// ErrMissingMandatory is returned (wrapping every miss) otherwise.
func (m *Manager) Resolve(byValue map[string]interface{}, byPattern map[string]map[string]interface{}) error {
	resolved := make(map[string]Group, len(m.tmpl))
	var missing []error

	for group, entries := range m.tmpl {
		out := make(Group, 0, len(entries))
		for _, e := range entries {
			name, v := e.Name, e.Var
			if patternGroup, ok := byPattern[group]; ok {
				if val, ok := patternGroup[name]; ok {
					out = append(out, Entry{Name: name, Var: Default(val, v.Summary())})
					continue
				}
			}
			if val, ok := byValue[name]; ok {
				out = append(out, Entry{Name: name, Var: Default(val, v.Summary())})
				continue
			}
			if v.IsMandatory() {
				missing = append(missing, &ErrMissingMandatory{Group: group, Var: name})
				continue
			}
			out = append(out, Entry{Name: name, Var: v})
		}
		resolved[group] = out
	}
	if len(missing) > 0 {
		return fmt.Errorf("namelist: %d mandatory variables unresolved: %w", len(missing), errors.Join(missing...))
	}
	m.resolved = resolved
	return nil
}

// Render serializes the resolved namelist to Fortran's `&GROUP ... /`
// syntax, one group per block. Groups are emitted in sorted order for
// deterministic output; variables within a group are emitted in the
// order the template declares them. indent prefixes every variable
// line.
func (m *Manager) Render(indent string) (string, error) {
	if m.resolved == nil {
		return "", fmt.Errorf("namelist: Resolve must run before Render")
	}
	groups := make([]string, 0, len(m.resolved))
	for g := range m.resolved {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var b strings.Builder
	for _, group := range groups {
		fmt.Fprintf(&b, "&%s\n", group)
		for _, e := range m.resolved[group] {
			fmt.Fprintf(&b, "%s%s = %s,\n", indent, e.Name, quote(e.Var.Value()))
		}
		b.WriteString("/\n\n")
	}
	return b.String(), nil
}

// quote renders a Go value using Fortran-idiomatic namelist quoting:
// strings in single quotes, lists comma-joined without brackets,
// numbers and bools passed through as literals.
func quote(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return ".TRUE."
		}
		return ".FALSE."
	case []interface{}:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = quote(e)
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// WriteToASCII persists Render's output atomically (temp file +
// rename), matching the teacher's atomic-write habits throughout
// inmaputil. overwrite controls whether an existing file at path is
// replaced; makedirs creates path's parent directory tree first.
func (m *Manager) WriteToASCII(path string, overwrite, makedirs bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("namelist: %s already exists and overwrite=false", path)
		}
	}
	if makedirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("namelist: creating directory for %s: %w", path, err)
		}
	}
	text, err := m.Render("    ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".namelist-*.tmp")
	if err != nil {
		return fmt.Errorf("namelist: scratch file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("namelist: writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("namelist: writing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("namelist: renaming into %s: %w", path, err)
	}
	return nil
}

// View returns a tabular summary of the resolved namelist, grounded on
// handler_app_namelist.py's NamelistHandler.view (tabulate over a
// flattened group:var -> value mapping).
func (m *Manager) View() string {
	if m.resolved == nil {
		return ""
	}
	type row struct {
		key, value string
	}
	groups := make([]string, 0, len(m.resolved))
	for g := range m.resolved {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var rows []row
	for _, group := range groups {
		for _, e := range m.resolved[group] {
			rows = append(rows, row{key: group + ":" + e.Name, value: fmt.Sprintf("%v", e.Var.Value())})
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-40s %s\n", "variable", "value")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-40s %s\n", r.key, r.value)
	}
	return b.String()
}
