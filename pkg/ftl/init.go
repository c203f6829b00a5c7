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

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wearflash/pkg/irq"
)

/*
	initialize runs in two phases:

	1. Validation sweep: every representative in the address space is checked.
	   Invalid ones need initialization. Valid ones with a logical identifier
	   beyond the current count are left over from an earlier layout with more
	   logical sectors, and get invalidated.

	2. Gap fill: if anything needs initialization, every identifier that cannot
	   be resolved gets a freshly allocated group. This stops as soon as all
	   needed groups have been set up.

	Finding the missing identifiers is quadratic in the number of logical
	sectors, since each lookup scans the address space.
*/
func (v *Volume) initialize() error {

	needed := 0

	for s := v.layout.LowerBound; s < v.layout.UpperBound(); s += v.groupBy() {

		h := v.HeaderAt(s)

		if !h.Valid() {
			v.report.Invalid++
			needed++
			continue
		}

		if h.LogicalID >= v.layout.LogicalCount {
			log.WithFields(log.Fields{
				"sector":  s,
				"logical": h.LogicalID,
			}).Debug("invalidating sector with stale logical id")
			if err := v.DeleteRange(s, s+v.groupBy()); err != nil {
				return err
			}
			v.report.Invalidated++
			needed++
		}
	}

	if needed == 0 {
		log.Debug("all logical sectors present")
		return nil
	}

	for id := 0; id < int(v.layout.LogicalCount) && needed > 0; id++ {

		if _, ok := v.FindRepresentative(uint16(id)); ok {
			continue
		}

		s, err := v.allocate()
		if err != nil {
			return fmt.Errorf("cannot allocate logical sector %d: %w", id, err)
		}

		if err := v.format(s, uint16(id)); err != nil {
			return fmt.Errorf("cannot format logical sector %d: %w", id, err)
		}

		log.WithFields(log.Fields{"sector": s, "logical": id}).Debug(
			"allocated logical sector")

		v.report.Allocated++
		needed--
	}

	return nil
}

// format erases the group starting at sector and writes fresh headers for
// logical sector id into all of its physical sectors.
func (v *Volume) format(sector uint32, id uint16) error {

	page := make([]byte, v.geo.PageSize)
	addr := v.geo.SectorAddress(sector)

	return irq.Critical(v.irq, func() error {

		if err := v.dev.Erase(addr, v.groupBy()*v.geo.SectorSize); err != nil {
			return err
		}

		for ix := uint32(0); ix < v.groupBy(); ix++ {
			newHeader(id, uint8(ix)).EncodePage(page)
			if err := v.dev.Program(
				v.geo.SectorAddress(sector+ix), page); err != nil {
				return err
			}
		}

		return nil
	})
}
