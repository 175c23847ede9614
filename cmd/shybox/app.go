/*
Copyright © 2017 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"
	"time"

	"github.com/c-hydro/shybox-go/namelist"
	"github.com/c-hydro/shybox-go/runner"
)

// namelistPlan is the "namelist" sub-section of an application section:
// which versioned template to resolve and where to write it, grounded
// on spec.md §4.5 (namelist.New(model, version)) plus §6's namelist
// file format contract.
type namelistPlan struct {
	model     string
	version   string
	output    string
	overwrite bool
	byValue   map[string]interface{}
	byPattern map[string]map[string]interface{}
}

// executionPlan is the "execution" sub-section, a direct mapping onto
// runner.Config using the same field names spec.md §4.6 itself uses
// (info.location, library.location, execution_update).
type executionPlan struct {
	cfg runner.Config
}

// buildNamelistPlan reads section["namelist"], returning (nil, nil) if
// the application section declares no namelist work.
func buildNamelistPlan(section map[string]interface{}) (*namelistPlan, error) {
	raw, ok := section["namelist"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	plan := &namelistPlan{
		model:     stringField(raw, "model"),
		version:   stringField(raw, "version"),
		output:    stringField(raw, "output"),
		overwrite: boolField(raw, "overwrite"),
	}
	if plan.model == "" || plan.version == "" || plan.output == "" {
		return nil, fmt.Errorf("shybox: application.namelist requires model, version, and output")
	}
	plan.byValue, _ = raw["values"].(map[string]interface{})
	plan.byPattern = map[string]map[string]interface{}{}
	if patterns, ok := raw["patterns"].(map[string]interface{}); ok {
		for group, vars := range patterns {
			if m, ok := vars.(map[string]interface{}); ok {
				plan.byPattern[group] = m
			}
		}
	}
	return plan, nil
}

// run resolves the named template against byValue/byPattern and writes
// it to output, the one-shot equivalent of spec.md §4.5's render step.
func (p *namelistPlan) run() error {
	m, err := namelist.New(p.model, p.version)
	if err != nil {
		return fmt.Errorf("shybox: namelist: %w", err)
	}
	if err := m.Resolve(p.byValue, p.byPattern); err != nil {
		return fmt.Errorf("shybox: namelist: %w", err)
	}
	return m.WriteToASCII(p.output, p.overwrite, true)
}

// buildExecutionPlan reads section["execution"], returning (nil, nil)
// if the application section declares no binary to run.
func buildExecutionPlan(section map[string]interface{}) (*executionPlan, error) {
	raw, ok := section["execution"].(map[string]interface{})
	if !ok {
		return nil, nil
	}

	executable, _ := raw["executable"].(map[string]interface{})
	library, _ := raw["library"].(map[string]interface{})
	info, _ := raw["info"].(map[string]interface{})

	cfg := runner.Config{
		ExecutablePath:  stringField(executable, "path"),
		LibraryLocation: stringField(library, "location"),
		InfoPath:        stringField(info, "location"),
		Tag:             stringField(raw, "tag"),
		Streaming:       boolField(raw, "streaming"),
		ExecutionUpdate: boolField(raw, "execution_update"),
		DryRun:          boolField(raw, "dry_run"),
		Arguments:       raw["arguments"],
	}
	if cfg.ExecutablePath == "" || cfg.InfoPath == "" {
		return nil, fmt.Errorf("shybox: application.execution requires executable.path and info.location")
	}
	if deps, ok := raw["dependencies"].([]interface{}); ok {
		for _, d := range deps {
			if s, ok := d.(string); ok {
				cfg.Dependencies = append(cfg.Dependencies, s)
			}
		}
	}
	if timeoutS := stringField(raw, "timeout"); timeoutS != "" {
		d, err := time.ParseDuration(timeoutS)
		if err != nil {
			return nil, fmt.Errorf("shybox: application.execution.timeout: %w", err)
		}
		cfg.Timeout = d
	}
	return &executionPlan{cfg: cfg}, nil
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]interface{}, key string) bool {
	b, _ := m[key].(bool)
	return b
}
