package main

import "testing"

func TestNewRootCmdMissingSettingsFileExitsConfigOrTime(t *testing.T) {
	code := newRootCmd(nil)
	if code != exitConfigOrTime {
		t.Fatalf("got %d, want %d", code, exitConfigOrTime)
	}
}

func TestNewRootCmdEmptyApplicationSectionSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := writeSettings(t, dir, map[string]interface{}{})
	code := newRootCmd([]string{"-settings_file", path, "-time", "202501240000", "-domain", "italy"})
	if code != exitOK {
		t.Fatalf("got %d, want %d", code, exitOK)
	}
}

func TestNewRootCmdUnknownApplicationKeyIsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := writeSettings(t, dir, map[string]interface{}{})
	code := newRootCmd([]string{"-settings_file", path, "-application_key", "does_not_exist"})
	if code != exitConfigOrTime {
		t.Fatalf("got %d, want %d (application section is mandatory)", code, exitConfigOrTime)
	}
}
