//go:build !unix

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
	"os"
)

// Image is a flash device backed by an image file. Without mmap, the image is
// held in memory and written back on Sync.
type Image struct {
	*nor
	path string
}

// OpenImage loads the image file at path. When create is set and the file does
// not exist yet, a fully erased image is created first.
func OpenImage(path string, geo Geometry, create bool) (*Image, error) {

	if err := geo.Validate(); err != nil {
		return nil, err
	}

	if create {
		if err := createImage(path, geo); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	err = checkImageSize(f, geo)
	f.Close()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &Image{nor: newNOR(geo, data), path: path}, nil
}

//
func (i *Image) Sync() error {
	if i.closed {
		return ErrClosed
	}
	return os.WriteFile(i.path, i.data, 0644)
}

//
func (i *Image) Close() error {
	if i.closed {
		return nil
	}
	err := i.Sync()
	i.closed = true
	i.data = nil
	return err
}
