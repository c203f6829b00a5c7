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

package run

import (
	"fmt"

	"github.com/xelalexv/wearflash/pkg/flash"
	"github.com/xelalexv/wearflash/pkg/ftl"
)

// FlashSettings are the settings describing the flash device and the
// volume layout on it
type FlashSettings struct {
	SectorSize  uint32
	PageSize    uint32
	SectorCount uint32
	Base        uint32
	//
	Lower int
	Count int
	Group int
}

//
func (f *FlashSettings) addGeometrySettings(c *Command) {
	c.AddSetting(&f.SectorSize, "sector-size", "", "WEARFLASH_SECTOR_SIZE",
		uint32(flash.DefaultSectorSize), "erase sector size in bytes", false)
	c.AddSetting(&f.PageSize, "page-size", "", "WEARFLASH_PAGE_SIZE",
		uint32(flash.DefaultPageSize), "program page size in bytes", false)
	c.AddSetting(&f.SectorCount, "sectors", "", "WEARFLASH_SECTORS",
		uint32(flash.DefaultSectorCount), "number of sectors of device", false)
	c.AddSetting(&f.Base, "base", "", "WEARFLASH_BASE",
		uint32(flash.DefaultBase), "memory mapped base address of device", false)
}

//
func (f *FlashSettings) addLayoutSettings(c *Command, env bool) {
	lower, count, group := "", "", ""
	if env {
		lower, count, group = "WEARFLASH_LOWER", "WEARFLASH_COUNT", "WEARFLASH_GROUP"
	}
	c.AddSetting(&f.Lower, "lower", "l", lower, 0,
		"first physical sector of volume", false)
	c.AddSetting(&f.Count, "count", "c", count, 0,
		"number of logical sectors", true)
	c.AddSetting(&f.Group, "group", "g", group, ftl.GroupBy1,
		"physical sectors per logical sector", false)
}

//
func (f *FlashSettings) geometry() (flash.Geometry, error) {
	geo := flash.Geometry{
		SectorSize:  f.SectorSize,
		PageSize:    f.PageSize,
		SectorCount: f.SectorCount,
		Base:        f.Base,
	}
	return geo, geo.Validate()
}

//
func (f *FlashSettings) layout() (ftl.Layout, error) {
	if f.Lower < 0 || f.Count < 1 || f.Count > 0xffff ||
		f.Group < 1 || f.Group > 0xff {
		return ftl.Layout{}, fmt.Errorf(
			"%w: lower=%d, count=%d, group=%d", ftl.ErrLayout,
			f.Lower, f.Count, f.Group)
	}
	return ftl.Layout{
		LowerBound:   uint32(f.Lower),
		LogicalCount: uint16(f.Count),
		GroupBy:      uint8(f.Group),
	}, nil
}
