// Package config implements SHYBOX's Configuration Manager (spec.md
// §4.1): load a nested settings tree, merge its LUT by priority,
// validate the LUT/format/template bijection, override LUT values
// from the OS environment, flatten variable sub-maps, and resolve
// `{key}` placeholders in an arbitrary section against the effective
// LUT and a driving time.
//
// JSON sources are read through a *viper.Viper (github.com/lnashier/viper,
// carried from the teacher's own Cfg wrapper in inmaputil/cmd.go) and
// the resulting nested map is held as a plain Tree; config.Manager
// layers the LUT/priority/strict-vs-lax machinery the
// teacher instead spreads across free functions in inmaputil.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"

	"github.com/c-hydro/shybox-go/internal/shytemplate"
	"github.com/c-hydro/shybox-go/internal/shytime"
)

// Tree is a generic nested settings map, the shape produced by
// unmarshaling JSON or TOML.
type Tree map[string]interface{}

// LUT is the three-parallel-mapping structure from spec.md §3: value
// (current binding), format (type declaration), template (default or
// time template), plus which keys came from the "reference" priority
// group and are therefore env-override candidates.
type LUT struct {
	Value        map[string]interface{}
	Format       map[string]string
	Template     map[string]string
	ReferenceKey map[string]bool
}

// Manager is a loaded, validated settings tree bound to one root key.
type Manager struct {
	raw      Tree
	RootKey  string
	Priority struct {
		Reference []string
		Other     []string
	}
	Flags map[string]interface{}
	LUT   LUT
}

// LoadFile reads a settings source from disk, dispatching on extension
// to JSON (encoding/json via viper's default) or TOML
// (github.com/BurntSushi/toml, decoded directly rather than through
// viper since viper's own TOML support is the same library one layer
// removed). rootKey selects the settings root within the file;
// applicationKey, if non-empty, is validated as a mandatory section.
func LoadFile(path, rootKey, applicationKey string) (*Manager, error) {
	ext := strings.TrimPrefix(strings.ToLower(fileExt(path)), ".")
	if ext == "" {
		ext = "json"
	}

	if ext == "toml" {
		var tree map[string]interface{}
		if _, err := toml.DecodeFile(path, &tree); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		return Load(tree, rootKey, applicationKey)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(ext)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(v.AllSettings(), rootKey, applicationKey)
}

func fileExt(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i+1:]
}

// Load resolves rootKey within source to the settings root, requires
// priority/flags/variables (and applicationKey, if non-empty), and
// returns a bound Manager with a merged LUT. source is a nested
// map[string]interface{} tree (the shape json.Unmarshal or a TOML
// decode produces).
func Load(source map[string]interface{}, rootKey, applicationKey string) (*Manager, error) {
	root := source
	if rootKey != "" {
		sub, ok := source[rootKey].(map[string]interface{})
		if !ok {
			return nil, &ErrMissingSection{Section: rootKey}
		}
		root = sub
	}

	for _, section := range []string{"priority", "flags", "variables"} {
		if _, ok := root[section]; !ok {
			return nil, &ErrMissingSection{Section: section}
		}
	}
	if applicationKey != "" {
		if _, ok := root[applicationKey]; !ok {
			return nil, &ErrMissingSection{Section: applicationKey}
		}
	}

	m := &Manager{raw: Tree(root), RootKey: rootKey}

	priority, _ := root["priority"].(map[string]interface{})
	m.Priority.Reference = toStringSlice(priority["reference"])
	m.Priority.Other = toStringSlice(priority["other"])

	flags, _ := root["flags"].(map[string]interface{})
	m.Flags = flags

	variables, _ := root["variables"].(map[string]interface{})
	m.LUT = LUT{
		Value:        toMap(variables["lut"]),
		Format:       toStringMap(variables["format"]),
		Template:     toStringMap(variables["template"]),
		ReferenceKey: map[string]bool{},
	}
	m.MergeLUTByPriority()
	return m, nil
}

// GetSection returns an arbitrary top-level section by name, the
// escape hatch spec.md §6 calls get_section.
func (m *Manager) GetSection(name string) (interface{}, bool) {
	v, ok := m.raw[name]
	return v, ok
}

// MergeLUTByPriority computes lut = other ∪ reference (reference wins
// on conflict) and records which keys came from reference, since those
// are the ones later subject to OS-environment override.
func (m *Manager) MergeLUTByPriority() {
	lutSection, _ := m.raw["variables"].(map[string]interface{})
	lutMap := toMap(toMapRaw(lutSection)["lut"])
	for _, k := range m.Priority.Other {
		if v, ok := lutMap[k]; ok {
			m.LUT.Value[k] = v
		}
	}
	for _, k := range m.Priority.Reference {
		if v, ok := lutMap[k]; ok {
			m.LUT.Value[k] = v
		}
		m.LUT.ReferenceKey[k] = true
	}
}

func toMapRaw(v interface{}) map[string]interface{} {
	if mm, ok := v.(map[string]interface{}); ok {
		return mm
	}
	return map[string]interface{}{}
}

// Validate checks that dom(LUT.Value) ⊇ dom(Format) ∪ dom(Template).
// In strict mode any mismatch returns *ErrLUTBindingMismatch; in lax
// mode missing keys are backfilled with nil and validate continues.
// If applyTimeTemplateForNone, any nil value (present, or backfilled in
// lax mode) whose template contains a strftime directive is replaced by
// the template itself so a later fill_obj_from_lut pass can still
// resolve it through time formatting.
func (m *Manager) Validate(strict, applyTimeTemplateForNone bool) error {
	check := func(key, kind string) error {
		v, ok := m.LUT.Value[key]
		if ok && v != nil {
			return nil
		}
		if !ok && strict {
			return &ErrLUTBindingMismatch{Key: key, Missing: kind}
		}
		if applyTimeTemplateForNone {
			if tmpl, ok := m.LUT.Template[key]; ok && shytime.HasTimeDirective(tmpl) {
				m.LUT.Value[key] = tmpl
				return nil
			}
		}
		m.LUT.Value[key] = nil
		return nil
	}
	for k := range m.LUT.Format {
		if err := check(k, "value"); err != nil {
			return err
		}
	}
	for k := range m.LUT.Template {
		if err := check(k, "value"); err != nil {
			return err
		}
	}
	return nil
}

// UpdateLUTFromEnv reads the OS environment for every reference-group
// key in keys (all reference keys if keys is nil), casting per
// format[k]. The LUT's current string value for a reference key is
// taken as the OS environment variable *name* to look up (matching
// spec.md §4.1: "looks up the declared env-variable name (stored as
// the current LUT value)"). Missing env entries set the key to nil and
// are reported; cast failures keep the raw string and are reported.
func (m *Manager) UpdateLUTFromEnv(keys []string) []error {
	if keys == nil {
		for k := range m.LUT.ReferenceKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	var warnings []error
	for _, k := range keys {
		if !m.LUT.ReferenceKey[k] {
			continue
		}
		envName, _ := m.LUT.Value[k].(string)
		if envName == "" {
			continue
		}
		raw, ok := os.LookupEnv(envName)
		if !ok {
			m.LUT.Value[k] = nil
			warnings = append(warnings, fmt.Errorf("config: env var %s for key %q not set", envName, k))
			continue
		}
		cast, err := castValue(raw, m.LUT.Format[k])
		if err != nil {
			m.LUT.Value[k] = raw
			warnings = append(warnings, &ErrEnvCastFailure{Key: k, Format: m.LUT.Format[k], Raw: raw})
			continue
		}
		m.LUT.Value[k] = cast
	}
	return warnings
}

func castValue(raw, format string) (interface{}, error) {
	switch format {
	case "int":
		return cast.ToIntE(raw)
	case "float":
		return cast.ToFloat64E(raw)
	case "time":
		return raw, nil
	default:
		return raw, nil
	}
}

// KeyMode selects how FlattenVariables names the keys it lifts to the
// top level.
type KeyMode int

const (
	KeyValueMode KeyMode = iota // "key:value" dotted path
	ValueMode                   // leaf only
	RootMode                    // root only
)

// FlattenVariables flattens the named sub-maps of "variables" (lut,
// format, template) into one map and returns it; the Manager itself is
// not modified. A key collision across the requested sub-maps is
// fatal, matching spec.md §4.1.
func (m *Manager) FlattenVariables(which []string, sep string, mode KeyMode) (map[string]interface{}, error) {
	if sep == "" {
		sep = "."
	}
	out := map[string]interface{}{}
	for _, w := range which {
		var src map[string]interface{}
		switch w {
		case "lut":
			src = m.LUT.Value
		case "format":
			src = stringMapToAny(m.LUT.Format)
		case "template":
			src = stringMapToAny(m.LUT.Template)
		default:
			continue
		}
		for k, v := range src {
			var flatKey string
			switch mode {
			case ValueMode:
				flatKey = k
			case RootMode:
				flatKey = w
			default:
				flatKey = w + sep + k
			}
			if _, exists := out[flatKey]; exists {
				return nil, fmt.Errorf("config: flattened key %q collides across variable sub-maps", flatKey)
			}
			out[flatKey] = v
		}
	}
	return out, nil
}

func stringMapToAny(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// IsTimeKey reports whether key should be treated as a time key:
// format[key]=="time", or its template contains a strftime directive,
// or (fallback) it starts with "time_" (config/timekeys.go).
func (m *Manager) IsTimeKey(key string) bool {
	return isTimeKey(key, m.LUT.Format[key], m.LUT.Template[key])
}

// ExpandEnv delegates to shytemplate.ExpandEnv, walking obj (which may
// be a string, map, or slice) and expanding "~"/"$NAME"/"${NAME}" for
// uppercase names in every string leaf.
func ExpandEnv(obj interface{}, extra map[string]string) interface{} {
	switch v := obj.(type) {
	case string:
		return shytemplate.ExpandEnv(v, extra)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, vv := range v {
			out[k] = ExpandEnv(vv, extra)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, vv := range v {
			out[i] = ExpandEnv(vv, extra)
		}
		return out
	default:
		return obj
	}
}

// View renders a dotted-key flattening of section as a human-readable
// table (name, value columns), matching spec.md §4.1's view contract
// and the teacher's table-printing habits in inmaputil.
func View(tableName string, section map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", tableName)
	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-30s %v\n", k, section[k])
	}
	return b.String()
}

func toStringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, len(vv))
		for i, e := range vv {
			out[i] = fmt.Sprintf("%v", e)
		}
		return out
	default:
		return nil
	}
}

func toMap(v interface{}) map[string]interface{} {
	if mm, ok := v.(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(mm))
		for k, vv := range mm {
			out[k] = vv
		}
		return out
	}
	return map[string]interface{}{}
}

func toStringMap(v interface{}) map[string]string {
	raw := toMap(v)
	out := make(map[string]string, len(raw))
	for k, vv := range raw {
		out[k] = fmt.Sprintf("%v", vv)
	}
	return out
}
