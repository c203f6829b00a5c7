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
	"fmt"
	"io"
	"os"

	"github.com/xelalexv/wearflash/pkg/snapshot"
)

//
func NewSave() *Save {

	s := &Save{}
	s.Runner = *NewRunner(
		"save -o|--output {file} [-t|--type {zstd|s2|lz4|none}] [-p|--port {port}]",
		"save snapshot of flash device from daemon",
		`Use the save command to save a compressed snapshot of the complete flash
device content from the daemon to a file.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.File, "output", "o", "", nil, "snapshot output file", true)
	s.AddSetting(&s.Type, "type", "t", "", "zstd", "compression type", false)

	return s
}

//
type Save struct {
	//
	Runner
	//
	File string
	Type string
}

//
func (s *Save) Run() error {

	s.ParseSettings()

	codec, err := snapshot.ParseCodec(s.Type)
	if err != nil {
		return err
	}

	resp, err := s.apiCall("GET", fmt.Sprintf("/snapshot?type=%s", codec),
		false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	return writeFile(s.File, resp)
}

// writeFile writes to a temporary file first, and renames it once complete
func writeFile(path string, in io.Reader) error {

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if _, err := io.Copy(w, in); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
