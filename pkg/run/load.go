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
	"bufio"
	"os"
)

//
func NewLoad() *Load {

	l := &Load{}
	l.Runner = *NewRunner(
		"load -i|--input {file} [-p|--port {port}]",
		"restore snapshot of flash device in daemon",
		`Use the load command to replace the complete flash device content in the
daemon with a snapshot. The daemon re-initializes its volume afterwards.`,
		"", runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.File, "input", "i", "", nil, "snapshot input file", true)

	return l
}

//
type Load struct {
	//
	Runner
	//
	File string
}

//
func (l *Load) Run() error {

	l.ParseSettings()

	f, err := os.Open(l.File)
	if err != nil {
		return err
	}
	defer f.Close()

	return l.printCall("PUT", "/snapshot", false, bufio.NewReader(f), os.Stdout)
}
