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
	"io"
	"os"

	"github.com/xelalexv/wearflash/pkg/flash"
	"github.com/xelalexv/wearflash/pkg/ftl"
)

//
func NewInit() *Init {

	i := &Init{}
	i.Runner = *NewRunner(
		`init -c|--count {count} [-l|--lower {sector}] [-g|--group {size}]
  [-i|--image {file} [--sector-size {bytes}] [--page-size {bytes}] [--sectors {count}]]
  [-p|--port {port}]`,
		"initialize volume on flash image or in daemon",
		`Use the init command to initialize a volume with the given layout, either
directly on a flash image file, or by having the daemon re-initialize its volume.
Logical sectors that already exist are kept, missing ones get allocated.`,
		"", `- With an image file, the daemon must not be running on the same file.

`+runnerHelpEpilogue, i.Run)

	i.AddBaseSettings()
	i.AddSetting(&i.Image, "image", "i", "", nil, "flash image file", false)
	i.addGeometrySettings(&i.Command)
	i.addLayoutSettings(&i.Command, false)

	return i
}

//
type Init struct {
	//
	Runner
	FlashSettings
	//
	Image string
}

//
func (i *Init) Run() error {

	i.ParseSettings()

	layout, err := i.layout()
	if err != nil {
		return err
	}

	if i.Image == "" {
		return i.printCall("PUT", fmt.Sprintf("/init?lower=%d&count=%d&group=%d",
			layout.LowerBound, layout.LogicalCount, layout.GroupBy),
			false, nil, os.Stdout)
	}

	geo, err := i.geometry()
	if err != nil {
		return err
	}

	return initImage(i.Image, geo, layout, os.Stdout)
}

// initImage initializes a volume on image file path, creating the file when
// it does not exist.
func initImage(path string, geo flash.Geometry, layout ftl.Layout,
	out io.Writer) error {

	img, err := flash.OpenImage(path, geo, true)
	if err != nil {
		return err
	}
	defer img.Close()

	v, err := ftl.Initialize(img, layout)
	if err != nil {
		return err
	}

	if err := img.Sync(); err != nil {
		return err
	}

	rep := v.Report()
	fmt.Fprintf(out, "initialized %s on %s\n", layout, path)
	fmt.Fprintf(out, "%d invalid, %d invalidated, %d allocated, took %v\n",
		rep.Invalid, rep.Invalidated, rep.Allocated, rep.Duration)
	return nil
}
