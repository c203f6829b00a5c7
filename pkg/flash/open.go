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
	"io"
	"strings"
)

// prefixes for device references
const (
	PrefixSerial = "serial://"
	PrefixMemory = "mem://"
)

// Open opens the device the reference points to. A reference is either a
// path to an image file, serial://{port} for an adapter, or mem:// for a
// volatile device. Image files are created when missing.
func Open(ref string, geo Geometry) (Device, error) {

	switch {

	case strings.HasPrefix(ref, PrefixSerial):
		return DialSerial(strings.TrimPrefix(ref, PrefixSerial), geo)

	case ref == PrefixMemory:
		return NewMemory(geo)

	case ref == "":
		return nil, fmt.Errorf("no flash device specified")

	default:
		return OpenImage(ref, geo, true)
	}
}

// Close closes the device if it needs closing.
func Close(d Device) error {
	if c, ok := d.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
