//go:build unix

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
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Image is a flash device backed by an image file that is mapped into memory,
// so that Bytes is a true memory mapped view.
type Image struct {
	*nor
	file *os.File
}

// OpenImage maps the image file at path. When create is set and the file does
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

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	if err := checkImageSize(f, geo); err != nil {
		f.Close()
		return nil, err
	}

	data, err := unix.Mmap(int(f.Fd()), 0, geo.Size(),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	log.WithFields(log.Fields{"image": path, "size": geo.Size()}).Debug(
		"flash image mapped")

	return &Image{nor: newNOR(geo, data), file: f}, nil
}

// Sync flushes the mapping to the image file.
func (i *Image) Sync() error {
	if i.closed {
		return ErrClosed
	}
	return unix.Msync(i.data, unix.MS_SYNC)
}

//
func (i *Image) Close() error {

	if i.closed {
		return nil
	}

	err := i.Sync()
	if uerr := unix.Munmap(i.data); uerr != nil && err == nil {
		err = uerr
	}
	if ferr := i.file.Close(); ferr != nil && err == nil {
		err = ferr
	}

	i.closed = true
	i.data = nil
	return err
}
