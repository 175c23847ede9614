package config

import (
	"os"
	"testing"

	"github.com/c-hydro/shybox-go/internal/shytime"
)

func baseSource() map[string]interface{} {
	return map[string]interface{}{
		"priority": map[string]interface{}{
			"reference": []interface{}{"path_src"},
			"other":     []interface{}{"domain_name"},
		},
		"flags": map[string]interface{}{"strict": true},
		"variables": map[string]interface{}{
			"lut": map[string]interface{}{
				"path_src":    "PATH_SRC",
				"domain_name": "italy",
				"time_run":    "%Y%m%d%H%M",
			},
			"format": map[string]interface{}{
				"path_src":    "string",
				"domain_name": "string",
				"time_run":    "time",
			},
			"template": map[string]interface{}{
				"path_src": "",
				"time_run": "%Y%m%d%H%M",
			},
		},
		"application": map[string]interface{}{
			"input_file": "{path_src}/{domain_name}/data_{time_run}.nc",
		},
	}
}

func TestLoadMissingSection(t *testing.T) {
	_, err := Load(map[string]interface{}{}, "", "")
	if err == nil {
		t.Fatal("expected ErrMissingSection")
	}
	if _, ok := err.(*ErrMissingSection); !ok {
		t.Fatalf("got %T, want *ErrMissingSection", err)
	}
}

func TestMergeLUTByPriority(t *testing.T) {
	m, err := Load(baseSource(), "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !m.LUT.ReferenceKey["path_src"] {
		t.Error("path_src should be a reference key")
	}
	if m.LUT.ReferenceKey["domain_name"] {
		t.Error("domain_name should not be a reference key")
	}
	if m.LUT.Value["domain_name"] != "italy" {
		t.Errorf("domain_name = %v, want italy", m.LUT.Value["domain_name"])
	}
}

func TestUpdateLUTFromEnv(t *testing.T) {
	m, err := Load(baseSource(), "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	os.Setenv("PATH_SRC", "/data/src")
	defer os.Unsetenv("PATH_SRC")

	if warnings := m.UpdateLUTFromEnv(nil); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if m.LUT.Value["path_src"] != "/data/src" {
		t.Errorf("path_src = %v, want /data/src", m.LUT.Value["path_src"])
	}
}

func TestUpdateLUTFromEnvMissing(t *testing.T) {
	m, err := Load(baseSource(), "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	os.Unsetenv("PATH_SRC")
	warnings := m.UpdateLUTFromEnv(nil)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if m.LUT.Value["path_src"] != nil {
		t.Errorf("path_src = %v, want nil", m.LUT.Value["path_src"])
	}
}

func TestGetApplicationResolved(t *testing.T) {
	m, err := Load(baseSource(), "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	os.Setenv("PATH_SRC", "/data/src")
	defer os.Unsetenv("PATH_SRC")
	m.UpdateLUTFromEnv(nil)

	app, err := m.GetApplication("application")
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	when, _ := shytime.ParsePoint("202501240000")
	resolved, err := app.Resolved(&when, nil, true)
	if err != nil {
		t.Fatalf("Resolved: %v", err)
	}
	want := "/data/src/italy/data_202501240000.nc"
	if got := resolved["input_file"]; got != want {
		t.Errorf("input_file = %q, want %q", got, want)
	}
}

func TestGetApplicationMissing(t *testing.T) {
	m, err := Load(baseSource(), "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.GetApplication("does_not_exist"); err == nil {
		t.Fatal("expected ErrMissingSection")
	}
}

func TestFlattenVariablesCollision(t *testing.T) {
	m, err := Load(baseSource(), "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.FlattenVariables([]string{"lut", "format"}, ".", ValueMode); err == nil {
		t.Fatal("expected collision error for leaf-only flattening of lut+format")
	}
}

func TestValidateApplication(t *testing.T) {
	m, err := Load(baseSource(), "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	app, _ := m.GetApplication("application")
	result := app.Validate(map[string]interface{}{"x": "{missing}", "y": nil})
	if len(result.UnresolvedPlaceholders) != 1 || len(result.NoneValues) != 1 {
		t.Errorf("Validate = %+v", result)
	}
}
