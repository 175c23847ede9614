package main

import (
	"reflect"
	"testing"
)

func TestParseArgsSeparatesKnownFromExtraTags(t *testing.T) {
	opts := parseArgs([]string{
		"-settings_file", "settings.json",
		"--time", "202501240000",
		"-domain", "italy",
		"--restart",
		"-verbose",
	})
	if opts.settingsFile != "settings.json" || opts.timeOverride != "202501240000" {
		t.Fatalf("known flags not bound: %+v", opts)
	}
	want := map[string]string{"domain": "italy", "restart": "true", "verbose": "true"}
	if !reflect.DeepEqual(opts.tags, want) {
		t.Fatalf("got tags %v, want %v", opts.tags, want)
	}
}

func TestParseArgsDefaultsRootAndApplicationKeys(t *testing.T) {
	opts := parseArgs(nil)
	if opts.rootKey != "settings" || opts.applicationKey != "application" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestParseArgsHonorsExplicitRootAndApplicationKeys(t *testing.T) {
	opts := parseArgs([]string{"-root_key", "configuration", "-application_key", "hmc"})
	if opts.rootKey != "configuration" || opts.applicationKey != "hmc" {
		t.Fatalf("explicit keys not honored: %+v", opts)
	}
}

func TestParseArgsIgnoresBarePositionals(t *testing.T) {
	opts := parseArgs([]string{"leftover"})
	if len(opts.tags) != 0 {
		t.Fatalf("got %v, want empty", opts.tags)
	}
}
