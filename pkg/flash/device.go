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

// Package flash contains the drivers for the raw NOR flash underneath the
// translation layer. A driver erases whole sectors, programs whole pages, and
// offers a memory mapped view of the flash content.
package flash

import (
	"errors"
	"fmt"
)

// defaults for RP2040 class devices
const (
	DefaultSectorSize  = 4096
	DefaultPageSize    = 256
	DefaultSectorCount = 512
	DefaultBase        = 0x10000000
)

// Erased is the value of every byte after an erase
const Erased = 0xff

//
var (
	ErrAlignment  = errors.New("flash: address or length not aligned")
	ErrOutOfRange = errors.New("flash: range exceeds device")
	ErrClosed     = errors.New("flash: device closed")
)

// Geometry describes the layout of a flash device. Addresses passed to Erase
// and Program are offsets into the device, Base is where the device shows up
// in the memory map.
type Geometry struct {
	SectorSize  uint32 `json:"sectorSize"`
	PageSize    uint32 `json:"pageSize"`
	SectorCount uint32 `json:"sectorCount"`
	Base        uint32 `json:"base"`
}

//
func DefaultGeometry() Geometry {
	return Geometry{
		SectorSize:  DefaultSectorSize,
		PageSize:    DefaultPageSize,
		SectorCount: DefaultSectorCount,
		Base:        DefaultBase,
	}
}

// Size returns the size of the device in bytes
func (g Geometry) Size() int {
	return int(g.SectorSize) * int(g.SectorCount)
}

// SectorAddress returns the device offset of the physical sector
func (g Geometry) SectorAddress(sector uint32) uint32 {
	return sector * g.SectorSize
}

//
func (g Geometry) Validate() error {
	if g.PageSize == 0 || g.SectorSize == 0 || g.SectorCount == 0 {
		return fmt.Errorf("invalid geometry %+v: sizes must be non-zero", g)
	}
	if g.SectorSize%g.PageSize != 0 {
		return fmt.Errorf(
			"invalid geometry %+v: sector size must be a multiple of page size", g)
	}
	return nil
}

//
func (g Geometry) String() string {
	return fmt.Sprintf("%d sectors of %d bytes, %d byte pages, base 0x%08x",
		g.SectorCount, g.SectorSize, g.PageSize, g.Base)
}

// Device is a raw NOR flash. Erase sets a sector aligned span to all ones,
// Program can only clear bits within a page aligned span. Bytes returns the
// memory mapped view of the device, which reflects the last completed erase or
// program operation. Callers must not write to it.
type Device interface {
	Geometry() Geometry
	Erase(addr, length uint32) error
	Program(addr uint32, data []byte) error
	Bytes() []byte
	Stats() Stats
}

// Syncer is implemented by devices that need to persist their content
type Syncer interface {
	Sync() error
}

// Stats counts the operations a device has performed since it was opened
type Stats struct {
	Erases   uint64 `json:"erases"`
	Programs uint64 `json:"programs"`
}
