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
	"fmt"
	"os"
)

//
func NewErase() *Erase {

	e := &Erase{}
	e.Runner = *NewRunner(
		"erase -n|--logical {id} [-u|--sub {index}] [-p|--port {port}]",
		"erase logical sector in daemon",
		`Use the erase command to erase a logical sector, or only one of its physical
sectors when a sub-sector index is given. The sector keeps its identity, only
its payload is erased.`,
		"", runnerHelpEpilogue, e.Run)

	e.AddBaseSettings()
	e.AddSetting(&e.Logical, "logical", "n", "", 0, "logical sector", false)
	e.AddSetting(&e.Sub, "sub", "u", "", 0, "sub-sector index", false)

	return e
}

//
type Erase struct {
	//
	Runner
	//
	Logical int
	Sub     int
}

//
func (e *Erase) Run() error {

	e.ParseSettings()

	path := fmt.Sprintf("/sector/%d/erase", e.Logical)
	if e.IsSet("sub") {
		path = fmt.Sprintf("%s/%d", path, e.Sub)
	}

	return e.printCall("PUT", path, false, nil, os.Stdout)
}

//
func NewDelete() *Delete {

	d := &Delete{}
	d.Runner = *NewRunner(
		`delete {-b|--begin {sector} [-e|--end {sector}] | -a|--all [-y|--yes]}
  [-p|--port {port}]`,
		"delete physical sectors in daemon",
		`Use the delete command to invalidate physical sectors by clearing their header
signature. Deleted logical sectors get allocated anew the next time the volume
is initialized, and their content is lost.`,
		"", `- The end sector is exclusive. Without it, only the begin sector is deleted.

`+runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Begin, "begin", "b", "", 0, "first physical sector", false)
	d.AddSetting(&d.End, "end", "e", "", 0, "physical sector after last one", false)
	d.AddSetting(&d.All, "all", "a", "", false, "delete all sectors of volume", false)
	d.AddSetting(&d.Yes, "yes", "y", "", false, "do not ask for confirmation", false)

	return d
}

//
type Delete struct {
	//
	Runner
	//
	Begin int
	End   int
	All   bool
	Yes   bool
}

//
func (d *Delete) Run() error {

	d.ParseSettings()

	if d.All {
		if !d.Yes && !GetUserConfirmation("delete all sectors of volume?") {
			return nil
		}
		return d.printCall("PUT", "/delete?all=true", false, nil, os.Stdout)
	}

	if !d.IsSet("begin") {
		return fmt.Errorf("either --begin or --all is required")
	}

	path := fmt.Sprintf("/delete?begin=%d", d.Begin)
	if d.IsSet("end") {
		path = fmt.Sprintf("%s&end=%d", path, d.End)
	}

	return d.printCall("PUT", path, false, nil, os.Stdout)
}
