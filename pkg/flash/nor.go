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

	log "github.com/sirupsen/logrus"
)

// nor applies NOR flash semantics to a byte slice. All drivers keep their
// content, or a mirror of it, in one of these.
type nor struct {
	geo    Geometry
	data   []byte
	wear   []uint32
	stats  Stats
	closed bool
}

//
func newNOR(geo Geometry, data []byte) *nor {
	return &nor{
		geo:  geo,
		data: data,
		wear: make([]uint32, geo.SectorCount),
	}
}

//
func (n *nor) Geometry() Geometry {
	return n.geo
}

//
func (n *nor) Bytes() []byte {
	return n.data
}

//
func (n *nor) Stats() Stats {
	return n.stats
}

// EraseCount returns how often the given physical sector has been erased
// since the device was opened.
func (n *nor) EraseCount(sector uint32) uint32 {
	if sector < uint32(len(n.wear)) {
		return n.wear[sector]
	}
	return 0
}

//
func (n *nor) checkErase(addr, length uint32) error {
	if n.closed {
		return ErrClosed
	}
	if addr%n.geo.SectorSize != 0 || length%n.geo.SectorSize != 0 {
		return fmt.Errorf("%w: erase 0x%x+0x%x, sector size 0x%x",
			ErrAlignment, addr, length, n.geo.SectorSize)
	}
	if uint64(addr)+uint64(length) > uint64(len(n.data)) {
		return fmt.Errorf("%w: erase 0x%x+0x%x", ErrOutOfRange, addr, length)
	}
	return nil
}

//
func (n *nor) checkProgram(addr uint32, length int) error {
	if n.closed {
		return ErrClosed
	}
	if addr%n.geo.PageSize != 0 || uint32(length)%n.geo.PageSize != 0 {
		return fmt.Errorf("%w: program 0x%x+0x%x, page size 0x%x",
			ErrAlignment, addr, length, n.geo.PageSize)
	}
	if uint64(addr)+uint64(length) > uint64(len(n.data)) {
		return fmt.Errorf("%w: program 0x%x+0x%x", ErrOutOfRange, addr, length)
	}
	return nil
}

//
func (n *nor) erase(addr, length uint32) {
	span := n.data[addr : addr+length]
	for ix := range span {
		span[ix] = Erased
	}
	for s := addr / n.geo.SectorSize; s < (addr+length)/n.geo.SectorSize; s++ {
		n.wear[s]++
	}
	n.stats.Erases++
	log.WithFields(log.Fields{"addr": addr, "length": length}).Trace("erase")
}

// program can only clear bits, just like the real thing
func (n *nor) program(addr uint32, data []byte) {
	span := n.data[addr : addr+uint32(len(data))]
	for ix, b := range data {
		span[ix] &= b
	}
	n.stats.Programs++
	log.WithFields(log.Fields{"addr": addr, "length": len(data)}).Trace("program")
}

//
func (n *nor) Erase(addr, length uint32) error {
	if err := n.checkErase(addr, length); err != nil {
		return err
	}
	n.erase(addr, length)
	return nil
}

//
func (n *nor) Program(addr uint32, data []byte) error {
	if err := n.checkProgram(addr, len(data)); err != nil {
		return err
	}
	n.program(addr, data)
	return nil
}
