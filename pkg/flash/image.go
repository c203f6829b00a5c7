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

package flash

import (
	"bufio"
	"fmt"
	"os"
)

// createImage writes a fully erased image file of the size given by geo, unless
// the file already exists.
func createImage(path string, geo Geometry) error {

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}

	out := bufio.NewWriter(f)
	blank := make([]byte, geo.SectorSize)
	for ix := range blank {
		blank[ix] = Erased
	}

	for s := uint32(0); s < geo.SectorCount; s++ {
		if _, err := out.Write(blank); err != nil {
			f.Close()
			return err
		}
	}

	if err := out.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

//
func checkImageSize(f *os.File, geo Geometry) error {
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.Size() != int64(geo.Size()) {
		return fmt.Errorf("image %s has %d bytes, geometry requires %d",
			f.Name(), st.Size(), geo.Size())
	}
	return nil
}
