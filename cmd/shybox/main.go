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

// Command shybox is the thin workflow entry point spec.md §6 describes:
// it parses -settings_file/-time, forwards any unrecognized flags as
// extra tags, and exits 0/1/2/3 per the documented contract. Argument
// parsing itself is out of scope beyond this surface (spec.md §1), so
// everything past flag resolution lives in config/runner/namelist.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/c-hydro/shybox-go/internal/shylog"
)

func main() {
	os.Exit(newRootCmd(os.Args[1:]))
}

// newRootCmd wires a cobra.Command purely for its Use/Short help
// surface (matching the teacher's inmaputil.Cfg.Root convention); flag
// parsing itself is handed to parseArgs, since spec.md §6's "unknown
// -flag value pairs are forwarded as extra tags" contract needs to see
// every flag, known or not, which cobra/pflag's own parser consumes
// and rejects before Run ever sees it.
func newRootCmd(args []string) int {
	code := exitOK

	root := &cobra.Command{
		Use:                "shybox",
		Short:              "Drive a SHYBOX settings-configured data processing or model run.",
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, _ []string) {
			opts := parseArgs(args)
			logger := shylog.New(os.Stderr)
			code = runShybox(opts, logger)
		},
	}

	if err := root.Execute(); err != nil {
		return exitConfigOrTime
	}
	return code
}
