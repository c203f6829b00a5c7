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
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		`dump -n|--logical {id} [-o|--offset {bytes}] [-l|--length {bytes}]
  [-A|--address] [-j|--json] [-p|--port {port}]`,
		"dump logical sector from daemon",
		`Use the dump command to output a hex dump of a logical sector, starting at the
given offset. Offset 0 is the start of the sector header. A dump ends at the
end of the physical sector holding the offset.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddJSONSetting()
	d.AddSetting(&d.Logical, "logical", "n", "", 0, "logical sector", false)
	d.AddSetting(&d.Offset, "offset", "o", "", 0, "offset into logical sector", false)
	d.AddSetting(&d.Length, "length", "l", "", 0,
		"number of bytes; 0 for up to end of physical sector", false)
	d.AddSetting(&d.Address, "address", "A", "", false,
		"only print memory mapped address of offset", false)

	return d
}

//
type Dump struct {
	//
	Runner
	//
	Logical int
	Offset  int
	Length  int
	Address bool
}

//
func (d *Dump) Run() error {

	d.ParseSettings()

	path := fmt.Sprintf("/sector/%d?offset=%d&length=%d",
		d.Logical, d.Offset, d.Length)
	if d.Address {
		path = fmt.Sprintf("/sector/%d/address?offset=%d", d.Logical, d.Offset)
	}

	if err := d.printCall("GET", path, d.JSON, nil, os.Stdout); err != nil {
		return err
	}

	fmt.Println()
	return nil
}
