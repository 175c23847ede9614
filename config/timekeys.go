package config

import (
	"strings"

	"github.com/c-hydro/shybox-go/internal/shytime"
)

// isTimeKey implements spec.md §4.1's time-key detection: the union of
// (a) an explicit format=="time" declaration, (b) a template
// containing a strftime directive, (c) a "time_" name prefix fallback.
func isTimeKey(key, format, template string) bool {
	if format == "time" {
		return true
	}
	if shytime.HasTimeDirective(template) {
		return true
	}
	return strings.HasPrefix(key, "time_")
}

// detectedTimeKeys returns every key in the LUT that isTimeKey
// classifies as time-like.
func (m *Manager) detectedTimeKeys() []string {
	var out []string
	for k := range m.LUT.Value {
		if isTimeKey(k, m.LUT.Format[k], m.LUT.Template[k]) {
			out = append(out, k)
		}
	}
	return out
}
