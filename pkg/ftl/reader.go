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

package ftl

import (
	"fmt"
)

// locate resolves a byte offset within logical sector id to a physical sector
// and the offset within it.
func (v *Volume) locate(id uint16, offset uint32) (uint32, uint32, error) {

	sub := offset / v.geo.SectorSize
	if sub >= v.groupBy() {
		return 0, 0, fmt.Errorf("%w: offset %d, logical sector size %d",
			ErrOffset, offset, v.groupBy()*v.geo.SectorSize)
	}

	s, ok := v.FindSubSector(id, uint8(sub))
	if !ok {
		return 0, 0, fmt.Errorf("%w: logical %d, sub-sector %d", ErrNotFound, id, sub)
	}

	return s, offset % v.geo.SectorSize, nil
}

// ResolveReadAddress returns the memory mapped address of the byte at offset
// within logical sector id. Offset 0 is the start of the header page; payload
// starts at the page size. Callers must not read past the logical sector.
func (v *Volume) ResolveReadAddress(id uint16, offset uint32) (uint32, error) {
	s, off, err := v.locate(id, offset)
	if err != nil {
		return 0, err
	}
	return v.geo.Base + v.geo.SectorAddress(s) + off, nil
}

// ReadView returns the mapped flash content from offset within logical sector
// id to the end of the physical sector holding it. The slice is not a copy,
// and reflects later erase and program operations.
func (v *Volume) ReadView(id uint16, offset uint32) ([]byte, error) {
	s, off, err := v.locate(id, offset)
	if err != nil {
		return nil, err
	}
	start := v.geo.SectorAddress(s)
	end := start + v.geo.SectorSize
	return v.dev.Bytes()[start+off : end : end], nil
}
