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

// FindRepresentative returns the first physical sector of the logical sector
// id. Only group representatives are looked at, in ascending order, and the
// first valid match wins.
func (v *Volume) FindRepresentative(id uint16) (uint32, bool) {
	for s := v.layout.LowerBound; s < v.layout.UpperBound(); s += v.groupBy() {
		if h := v.HeaderAt(s); h.Valid() && h.LogicalID == id {
			return s, true
		}
	}
	return 0, false
}

// FindSubSector returns the physical sector holding sub-sector sub of the
// logical sector id. The walk starts at the representative and visits at most
// GroupBy sectors. When nothing matches, the last visited sector is returned
// together with false.
func (v *Volume) FindSubSector(id uint16, sub uint8) (uint32, bool) {

	rep, ok := v.FindRepresentative(id)
	if !ok {
		return rep, false
	}

	s := rep
	for ix := uint32(0); ix < v.groupBy(); ix++ {
		s = rep + ix
		if h := v.HeaderAt(s); h.Valid() && h.SubSector == sub {
			return s, true
		}
	}

	return s, false
}
