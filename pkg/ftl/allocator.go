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
	log "github.com/sirupsen/logrus"
)

// allocate picks a free group slot. It starts at a random slot and probes
// upwards to the upper bound, then downwards from just below the start to the
// lower bound. A slot is free when its representative has no valid header.
// Write counts are not taken into account.
func (v *Volume) allocate() (uint32, error) {

	lower := int64(v.layout.LowerBound)
	upper := int64(v.layout.UpperBound())
	step := int64(v.groupBy())

	start := lower + int64(v.rnd.Intn(int(v.layout.LogicalCount)))*step

	for s := start; s < upper; s += step {
		if !v.IsValid(uint32(s)) {
			log.WithFields(log.Fields{"start": start, "sector": s}).Trace(
				"allocated upwards")
			return uint32(s), nil
		}
	}

	for s := start - step; s >= lower; s -= step {
		if !v.IsValid(uint32(s)) {
			log.WithFields(log.Fields{"start": start, "sector": s}).Trace(
				"allocated downwards")
			return uint32(s), nil
		}
	}

	return 0, ErrNoSpace
}
