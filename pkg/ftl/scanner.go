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

// HeaderAt decodes the header of a physical sector from the mapped view. It
// never modifies flash and is safe to use inside critical sections.
func (v *Volume) HeaderAt(sector uint32) Header {
	off := v.geo.SectorAddress(sector)
	return DecodeHeader(v.dev.Bytes()[off : off+HeaderSize])
}

// IsValid reports whether the physical sector carries a valid signature.
func (v *Volume) IsValid(sector uint32) bool {
	return v.HeaderAt(sector).Valid()
}

// SectorInfo describes one physical sector of the volume
type SectorInfo struct {
	Sector  uint32 `json:"sector"`
	Address uint32 `json:"address"`
	Valid   bool   `json:"valid"`
	Header  Header `json:"header"`
}

// Sectors lists the headers of all physical sectors managed by the volume.
func (v *Volume) Sectors() []SectorInfo {
	ret := make([]SectorInfo, 0, v.layout.UpperBound()-v.layout.LowerBound)
	for s := v.layout.LowerBound; s < v.layout.UpperBound(); s++ {
		h := v.HeaderAt(s)
		ret = append(ret, SectorInfo{
			Sector:  s,
			Address: v.geo.Base + v.geo.SectorAddress(s),
			Valid:   h.Valid(),
			Header:  h,
		})
	}
	return ret
}
