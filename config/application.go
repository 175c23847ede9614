package config

import (
	"fmt"
	"sort"

	"github.com/c-hydro/shybox-go/internal/shytemplate"
	"github.com/c-hydro/shybox-go/internal/shytime"
)

// ApplicationConfig is the bound, scoped view spec.md §4.1 calls
// get_application: it exposes the section's raw form plus the
// with_times/with_lut/resolved resolution pipelines and a Validate
// that reports unresolved placeholders and nil leaves instead of
// failing outright.
type ApplicationConfig struct {
	mgr     *Manager
	Name    string
	section map[string]interface{}
}

// GetApplication returns a bound ApplicationConfig for the named
// top-level section (the application section; name is configurable
// per spec.md §3, default "application").
func (m *Manager) GetApplication(name string) (*ApplicationConfig, error) {
	sec, ok := m.raw[name].(map[string]interface{})
	if !ok {
		return nil, &ErrMissingSection{Section: name}
	}
	return &ApplicationConfig{mgr: m, Name: name, section: sec}, nil
}

// Raw returns the application section exactly as loaded, unresolved.
func (a *ApplicationConfig) Raw() map[string]interface{} { return a.section }

// WithTimes returns a deep copy of the section with the given
// time-valued overrides merged into the effective LUT before
// placeholder substitution (spec.md §4.1 with_times).
func (a *ApplicationConfig) WithTimes(values map[string]shytime.Point, strict bool) (map[string]interface{}, error) {
	extra := make(map[string]interface{}, len(values))
	for k, v := range values {
		extra[k] = v
	}
	return a.mgr.FillObjFromLUT(a.section, extra, true, nil, nil, nil, strict)
}

// WithLUT returns a deep copy of the section resolved against the
// current LUT at time when (spec.md §4.1 with_lut).
func (a *ApplicationConfig) WithLUT(when *shytime.Point, strict bool) (map[string]interface{}, error) {
	return a.mgr.FillObjFromLUT(a.section, nil, true, when, nil, nil, strict)
}

// Resolved is the full pipeline: time-resolve then LUT-substitute,
// producing a fully-bound deep copy (spec.md §4.1 resolved).
func (a *ApplicationConfig) Resolved(when *shytime.Point, extraTags map[string]interface{}, strict bool) (map[string]interface{}, error) {
	return a.mgr.FillObjFromLUT(a.section, extraTags, true, when, nil, nil, strict)
}

// ValidationResult reports the placeholders and nil leaves a resolved
// tree still carries.
type ValidationResult struct {
	UnresolvedPlaceholders []string
	NoneValues             []string
}

// Validate walks obj as given (it does not resolve it) and reports the
// "{tag}" placeholders and nil leaves it still carries, never itself
// failing: it is the inspection counterpart to the fatal
// Resolved(strict=true) path.
func (a *ApplicationConfig) Validate(obj map[string]interface{}) ValidationResult {
	var res ValidationResult
	walkValidate("", obj, &res)
	return res
}

func walkValidate(prefix string, v interface{}, res *ValidationResult) {
	switch vv := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkValidate(joinPath(prefix, k), vv[k], res)
		}
	case []interface{}:
		for i, e := range vv {
			walkValidate(fmt.Sprintf("%s[%d]", prefix, i), e, res)
		}
	case string:
		if shytemplate.HasPlaceholder(vv) {
			res.UnresolvedPlaceholders = append(res.UnresolvedPlaceholders, prefix)
		}
	case nil:
		res.NoneValues = append(res.NoneValues, prefix)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// FillObjFromLUT is the central placeholder resolver (spec.md §4.1).
// It builds an effective LUT starting from the base LUT: if
// resolveTimePlaceholders and when is non-nil, it resolves the
// requested timeKeys (or every detected time key, if timeKeys is nil)
// by strftime; non-requested time-like keys are otherwise dropped from
// the effective LUT so they don't leak into unrelated substitutions.
// templateKeys are then copied from the template dict into the
// effective LUT (so a key with no explicit value still substitutes
// its own template string). extraTags override/augment on top. Every
// string leaf of obj is substituted via shytemplate.Eval against the
// effective LUT; when is passed along, so any strftime directive still
// left in the leaf after substitution is formatted against it. The
// result is sanitized as a path.
func (m *Manager) FillObjFromLUT(obj map[string]interface{}, extraTags map[string]interface{}, resolveTimePlaceholders bool, when *shytime.Point, timeKeys, templateKeys []string, strict bool) (map[string]interface{}, error) {
	effective := make(map[string]interface{}, len(m.LUT.Value))
	for k, v := range m.LUT.Value {
		if isTimeKey(k, m.LUT.Format[k], m.LUT.Template[k]) {
			continue // time-like keys are handled explicitly below
		}
		effective[k] = v
	}

	wanted := timeKeys
	if wanted == nil {
		wanted = m.detectedTimeKeys()
	}
	if resolveTimePlaceholders && when != nil {
		for _, k := range wanted {
			tmpl := m.LUT.Template[k]
			if tmpl == "" {
				tmpl = fmt.Sprintf("%v", m.LUT.Value[k])
			}
			effective[k] = shytime.Format(*when, tmpl)
		}
	} else {
		for _, k := range wanted {
			if v, ok := m.LUT.Value[k]; ok {
				effective[k] = v
			}
		}
	}

	for _, k := range templateKeys {
		if tmpl, ok := m.LUT.Template[k]; ok {
			effective[k] = tmpl
		}
	}
	for k, v := range extraTags {
		effective[k] = v
	}

	tagMap := shytemplate.TagMap(effective)
	out := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		resolved, err := fillValue(v, tagMap, when, strict)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func fillValue(v interface{}, tags shytemplate.TagMap, when *shytime.Point, strict bool) (interface{}, error) {
	switch vv := v.(type) {
	case string:
		resolved, err := shytemplate.Eval(vv, tags, when, strict)
		if err != nil {
			if _, ok := err.(*shytemplate.ErrUnresolvedPlaceholder); ok && strict {
				return nil, &ErrPlaceholderUnresolved{Key: vv}
			}
			return nil, err
		}
		return resolved, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, e := range vv {
			r, err := fillValue(e, tags, when, strict)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, e := range vv {
			r, err := fillValue(e, tags, when, strict)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}
