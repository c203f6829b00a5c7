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

// Memory is a flash device backed by a byte slice. It starts out fully erased.
type Memory struct {
	*nor
}

//
func NewMemory(geo Geometry) (*Memory, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	data := make([]byte, geo.Size())
	for ix := range data {
		data[ix] = Erased
	}
	return &Memory{nor: newNOR(geo, data)}, nil
}
