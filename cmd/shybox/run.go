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
	"context"
	"time"

	"github.com/c-hydro/shybox-go/config"
	"github.com/c-hydro/shybox-go/internal/shylog"
	"github.com/c-hydro/shybox-go/internal/shytime"
	"github.com/c-hydro/shybox-go/runner"
)

// Exit codes per spec.md §6: 0 success, 1 unrecoverable failure, 2
// configuration/time parse failure, 3 listener timeout (unused here;
// reserved for the listener entry point, which shybox does not
// implement).
const (
	exitOK            = 0
	exitFailure       = 1
	exitConfigOrTime  = 2
	exitListenTimeout = 3
)

// options is the resolved command-line surface: the named flags
// (-settings_file, -time, -root_key, -application_key) plus whatever unknown "-flag value" pairs were forwarded as tags.
type options struct {
	settingsFile   string
	timeOverride   string
	rootKey        string
	applicationKey string
	tags           map[string]string
}

// runShybox implements the generic per-workflow entry point contract:
// load and validate the settings file, resolve the reference time,
// then drive whatever the application section describes (a namelist
// render and/or an external executable run). Actual dataset/process
// chain assembly is application-specific and lives behind the same
// application section, wired by whichever deployment configures it;
// this entry point only carries the namelist+execution leg spec.md's
// own "runner workloads" sentence singles out explicitly.
func runShybox(opts options, logger *shylog.Logger) int {
	if opts.settingsFile == "" {
		logger.Errorf("shybox: -settings_file is required")
		return exitConfigOrTime
	}
	if opts.rootKey == "" {
		opts.rootKey = "settings"
	}
	if opts.applicationKey == "" {
		opts.applicationKey = "application"
	}

	mgr, err := config.LoadFile(opts.settingsFile, opts.rootKey, opts.applicationKey)
	if err != nil {
		logger.Errorf("shybox: loading settings: %v", err)
		return exitConfigOrTime
	}
	for _, w := range mgr.UpdateLUTFromEnv(nil) {
		logger.Warnf("shybox: %v", w)
	}
	if err := mgr.Validate(true, true); err != nil {
		logger.Errorf("shybox: %v", err)
		return exitConfigOrTime
	}

	reference, err := resolveReference(opts.timeOverride)
	if err != nil {
		logger.Errorf("shybox: %v", err)
		return exitConfigOrTime
	}
	log := logger.With(map[string]interface{}{"time": reference.Time().Format("200601021504")})
	for k, v := range opts.tags {
		log.Debugf("shybox: extra tag %s=%s", k, v)
	}
	// Logged with its own LUT value, deliberately not time_run's.
	if restart, ok := mgr.LUT.Value["time_restart"]; ok {
		log.Infof("shybox: time_restart = %v", restart)
	}

	raw, ok := mgr.GetSection(opts.applicationKey)
	if !ok {
		log.Infof("shybox: no %q section configured, nothing to do", opts.applicationKey)
		return exitOK
	}
	section, _ := raw.(map[string]interface{})

	nlPlan, err := buildNamelistPlan(section)
	if err != nil {
		log.Errorf("shybox: %v", err)
		return exitFailure
	}
	if nlPlan != nil {
		if err := nlPlan.run(); err != nil {
			log.Errorf("shybox: namelist: %v", err)
			return exitFailure
		}
		log.Infof("shybox: wrote namelist %s", nlPlan.output)
	}

	exPlan, err := buildExecutionPlan(section)
	if err != nil {
		log.Errorf("shybox: %v", err)
		return exitFailure
	}
	if exPlan != nil {
		exPlan.cfg.Logger = log
		manifest, err := runner.New(exPlan.cfg).Run(context.Background())
		if err != nil {
			log.Errorf("shybox: execution: %v", err)
			return exitFailure
		}
		log.Infof("shybox: execution complete in %s, exit code %d", manifest.WallTime, manifest.Response.ExitCode)
	}

	return exitOK
}

// resolveReference parses an optional -time override, defaulting to
// the current instant when none is given.
func resolveReference(timeOverride string) (shytime.Point, error) {
	if timeOverride == "" {
		return shytime.NewPoint(time.Now()), nil
	}
	return shytime.ParsePoint(timeOverride)
}
