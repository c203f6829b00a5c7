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

package main

import (
	"fmt"
	"os"

	"github.com/xelalexv/wearflash/pkg/run"
)

//
var WearFlashVersion string

//
func synopsis() {
	fmt.Print(`
synopsis: wfctl {serve|init|status|ls|dump|erase|delete|save|load|version} ...

run 'wfctl {action} -h|--help' to see detailed info

`)
}

//
func version() {
	fmt.Printf("\nWearFlash %s\n\n", WearFlashVersion)
}

//
func main() {

	var action string
	var args []string

	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	switch action {

	case "serve":
		version()
		run.DieOnError(run.NewServe().Execute(args))

	case "init":
		run.DieOnError(run.NewInit().Execute(args))

	case "status":
		run.DieOnError(run.NewStatus().Execute(args))

	case "ls":
		run.DieOnError(run.NewList().Execute(args))

	case "dump":
		run.DieOnError(run.NewDump().Execute(args))

	case "erase":
		run.DieOnError(run.NewErase().Execute(args))

	case "delete":
		run.DieOnError(run.NewDelete().Execute(args))

	case "save":
		run.DieOnError(run.NewSave().Execute(args))

	case "load":
		run.DieOnError(run.NewLoad().Execute(args))

	case "version":
		version()

	case "", "-h", "--help":
		synopsis()

	default:
		run.Die("unknown action: %s\n", action)
	}
}
