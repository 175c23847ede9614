package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c-hydro/shybox-go/internal/shylog"
)

func writeSettings(t *testing.T, dir string, application map[string]interface{}) string {
	t.Helper()
	return writeSettingsWithLUT(t, dir, application, nil)
}

func writeSettingsWithLUT(t *testing.T, dir string, application, lut map[string]interface{}) string {
	t.Helper()
	if lut == nil {
		lut = map[string]interface{}{}
	}
	settings := map[string]interface{}{
		"settings": map[string]interface{}{
			"priority": map[string]interface{}{
				"reference": []interface{}{},
				"other":     []interface{}{},
			},
			"flags": map[string]interface{}{},
			"variables": map[string]interface{}{
				"lut":      lut,
				"format":   map[string]interface{}{},
				"template": map[string]interface{}{},
			},
			"application": application,
		},
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRunShyboxMissingSettingsFile(t *testing.T) {
	code := runShybox(options{}, shylog.New(nil))
	if code != exitConfigOrTime {
		t.Fatalf("got %d, want %d", code, exitConfigOrTime)
	}
}

func TestRunShyboxBadTimeOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeSettings(t, dir, map[string]interface{}{})
	code := runShybox(options{settingsFile: path, timeOverride: "not-a-time"}, shylog.New(nil))
	if code != exitConfigOrTime {
		t.Fatalf("got %d, want %d", code, exitConfigOrTime)
	}
}

func TestRunShyboxEmptyApplicationSectionIsOK(t *testing.T) {
	dir := t.TempDir()
	path := writeSettings(t, dir, map[string]interface{}{})
	code := runShybox(options{settingsFile: path, timeOverride: "202501240000"}, shylog.New(nil))
	if code != exitOK {
		t.Fatalf("got %d, want %d", code, exitOK)
	}
}

func TestRunShyboxWritesNamelist(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "hmc.info.txt")
	application := map[string]interface{}{
		"namelist": map[string]interface{}{
			"model":   "hmc",
			"version": "3.1.6",
			"output":  output,
			"values": map[string]interface{}{
				"sDomainName":                "italy",
				"iFlagRestart":               0,
				"a1dGeoForcing":              []interface{}{1.0, 2.0},
				"a1dResForcing":              []interface{}{0.01, 0.01},
				"a1iDimsForcing":             []interface{}{100, 100},
				"iSimLength":                 24,
				"iDtModel":                   3600,
				"iDtData_Forcing":            3600,
				"iDtData_Updating":           3600,
				"iDtData_Output":             3600,
				"sTimeStart":                 "202501240000",
				"sTimeRestart":               "202501230000",
				"sPathData_Static_Gridded":   "/data/static",
				"sPathData_Forcing_Gridded":  "/data/forcing",
				"sPathData_Updating_Gridded": "/data/updating",
				"sPathData_Output_Gridded":   "/data/output",
				"sPathData_Restart_Gridded":  "/data/restart",
			},
		},
	}
	path := writeSettings(t, dir, application)

	code := runShybox(options{settingsFile: path, timeOverride: "202501240000"}, shylog.New(nil))
	if code != exitOK {
		t.Fatalf("got %d, want %d", code, exitOK)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected namelist written: %v", err)
	}
}

func TestRunShyboxLogsTimeRestartIndependentlyOfTimeRun(t *testing.T) {
	dir := t.TempDir()
	lut := map[string]interface{}{"time_restart": "202501230000"}
	path := writeSettingsWithLUT(t, dir, map[string]interface{}{}, lut)

	var buf bytes.Buffer
	code := runShybox(options{settingsFile: path, timeOverride: "202501240000"}, shylog.New(&buf))
	if code != exitOK {
		t.Fatalf("got %d, want %d", code, exitOK)
	}
	if !strings.Contains(buf.String(), "time_restart = 202501230000") {
		t.Fatalf("time_restart not logged with its own LUT value: %s", buf.String())
	}
}

func TestRunShyboxNamelistMissingFieldsFails(t *testing.T) {
	dir := t.TempDir()
	application := map[string]interface{}{
		"namelist": map[string]interface{}{"model": "hmc"},
	}
	path := writeSettings(t, dir, application)

	code := runShybox(options{settingsFile: path, timeOverride: "202501240000"}, shylog.New(nil))
	if code != exitFailure {
		t.Fatalf("got %d, want %d", code, exitFailure)
	}
}
