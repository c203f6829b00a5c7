/*
   WearFlash - wear leveling translation layer for NOR flash
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of WearFlash.

   WearFlash is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   WearFlash is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with WearFlash. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"os"
)

//
func NewList() *List {

	l := &List{}
	l.Runner = *NewRunner(
		"ls [-j|--json] [-p|--port {port}]",
		"list physical sectors of volume",
		`Use the ls command to list the headers of all physical sectors of the volume
in the daemon, together with the logical sectors they belong to.`,
		"", runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddJSONSetting()

	return l
}

//
type List struct {
	Runner
}

//
func (l *List) Run() error {
	l.ParseSettings()
	return l.printCall("GET", "/list", l.JSON, nil, os.Stdout)
}

//
func NewStatus() *Status {

	s := &Status{}
	s.Runner = *NewRunner(
		"status [-j|--json] [-p|--port {port}]",
		"get daemon status",
		`Use the status command to show device, layout, initialization result, and
operation counters of the daemon.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddJSONSetting()

	return s
}

//
type Status struct {
	Runner
}

//
func (s *Status) Run() error {
	s.ParseSettings()
	return s.printCall("GET", "/status", s.JSON, nil, os.Stdout)
}
