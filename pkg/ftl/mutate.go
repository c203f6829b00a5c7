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

// EraseLogicalSector erases all physical sectors of logical sector id and
// rewrites their headers with incremented write counts. The headers are read,
// the group erased and the headers written back in one critical section.
// An id outside the layout is a programming error and panics.
func (v *Volume) EraseLogicalSector(id uint16) error {

	v.assertLogical(id)

	return irq.Critical(v.irq, func() error {

		g := v.groupBy()
		sectors := make([]uint32, g)
		headers := make([]Header, g)

		for ix := uint32(0); ix < g; ix++ {
			s, ok := v.FindSubSector(id, uint8(ix))
			if !ok {
				return fmt.Errorf("%w: logical %d, sub-sector %d",
					ErrNotFound, id, ix)
			}
			sectors[ix] = s
			headers[ix] = v.HeaderAt(s).bumped()
		}

		rep, ok := v.FindRepresentative(id)
		if !ok {
			return fmt.Errorf("%w: logical %d", ErrNotFound, id)
		}

		if err := v.dev.Erase(
			v.geo.SectorAddress(rep), g*v.geo.SectorSize); err != nil {
			return err
		}

		page := make([]byte, v.geo.PageSize)
		for ix, s := range sectors {
			headers[ix].EncodePage(page)
			if err := v.dev.Program(v.geo.SectorAddress(s), page); err != nil {
				return err
			}
		}

		log.WithFields(log.Fields{"logical": id, "sector": rep}).Debug(
			"erased logical sector")
		return nil
	})
}

// ErasePhysicalSector erases sub-sector sub of logical sector id and rewrites
// its header with an incremented write count. Out of range arguments are a
// programming error and panic.
func (v *Volume) ErasePhysicalSector(id uint16, sub uint8) error {

	v.assertLogical(id)
	if uint32(sub) >= v.groupBy() {
		panic(fmt.Sprintf("sub-sector %d out of range, group size is %d",
			sub, v.layout.GroupBy))
	}

	return irq.Critical(v.irq, func() error {

		s, ok := v.FindSubSector(id, sub)
		if !ok {
			return fmt.Errorf("%w: logical %d, sub-sector %d", ErrNotFound, id, sub)
		}

		h := v.HeaderAt(s).bumped()
		addr := v.geo.SectorAddress(s)

		if err := v.dev.Erase(addr, v.geo.SectorSize); err != nil {
			return err
		}

		page := make([]byte, v.geo.PageSize)
		h.EncodePage(page)
		if err := v.dev.Program(addr, page); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"logical": id, "sub": sub, "sector": s}).Debug("erased physical sector")
		return nil
	})
}

// DeleteSector invalidates a single physical sector.
func (v *Volume) DeleteSector(sector uint32) error {
	return v.DeleteRange(sector, sector+1)
}

// DeleteAll invalidates every physical sector of the volume. The next
// initialization allocates all logical sectors anew.
func (v *Volume) DeleteAll() error {
	return v.DeleteRange(v.layout.LowerBound, v.layout.UpperBound())
}

// DeleteRange invalidates physical sectors begin through end-1 by clearing
// their signatures. Only header pages are programmed, nothing gets erased.
// This works because going from the signature to all zeros only clears bits.
func (v *Volume) DeleteRange(begin, end uint32) error {

	if begin > end || end > v.geo.SectorCount {
		return fmt.Errorf("invalid sector range %d-%d", begin, end)
	}

	page := make([]byte, v.geo.PageSize)
	Header{}.EncodePage(page)
	for ix := offLogicalID; ix < HeaderSize; ix++ {
		page[ix] = 0xff
	}

	err := irq.Critical(v.irq, func() error {
		for s := begin; s < end; s++ {
			if err := v.dev.Program(v.geo.SectorAddress(s), page); err != nil {
				return err
			}
		}
		return nil
	})

	if err == nil {
		log.WithFields(log.Fields{"begin": begin, "end": end}).Debug(
			"deleted sectors")
	}
	return err
}

//
func (v *Volume) assertLogical(id uint16) {
	if id >= v.layout.LogicalCount {
		panic(fmt.Sprintf("logical sector %d out of range, volume has %d",
			id, v.layout.LogicalCount))
	}
}
