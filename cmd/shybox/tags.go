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

import "strings"

// parseArgs walks args (os.Args[1:]) by hand rather than leaning on
// cobra/pflag's flag-parsing loop, since spec.md §6 requires forwarding
// *any* unrecognized "-flag value" pair as an extra tag and the pinned
// cobra/pflag versions predate their own unknown-flag tolerance option.
// Every "-name value" or "--name value" pair is recognized; a flag with
// no following value (end of args, or immediately followed by another
// flag) is recorded with value "true".
func parseArgs(args []string) options {
	opts := options{tags: map[string]string{}}
	for i := 0; i < len(args); i++ {
		name := strings.TrimLeft(args[i], "-")
		if name == args[i] {
			continue // bare positional value, nothing to bind it to
		}
		value := "true"
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			value = args[i+1]
			i++
		}
		switch {
		case name == "settings_file":
			opts.settingsFile = value
		case name == "time":
			opts.timeOverride = value
		case name == "root_key":
			opts.rootKey = value
		case name == "application_key":
			opts.applicationKey = value
		default:
			opts.tags[name] = value
		}
	}
	if opts.rootKey == "" {
		opts.rootKey = "settings"
	}
	if opts.applicationKey == "" {
		opts.applicationKey = "application"
	}
	return opts
}
