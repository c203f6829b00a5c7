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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xelalexv/wearflash/pkg/flash"
	"github.com/xelalexv/wearflash/pkg/irq"
)

//
func testGeometry() flash.Geometry {
	return flash.Geometry{
		SectorSize:  1024,
		PageSize:    64,
		SectorCount: 256,
		Base:        flash.DefaultBase,
	}
}

//
func newTestDevice(t *testing.T) *flash.Memory {
	t.Helper()
	dev, err := flash.NewMemory(testGeometry())
	require.NoError(t, err)
	return dev
}

//
func initTestVolume(t *testing.T, dev flash.Device, l Layout, seed int64) *Volume {
	t.Helper()
	v, err := Initialize(dev, l, WithRand(rand.New(rand.NewSource(seed))))
	require.NoError(t, err)
	return v
}

// fixedRand always starts probing at the same slot
type fixedRand int

//
func (f fixedRand) Intn(n int) int {
	return int(f) % n
}

// guardedDevice fails the test when flash is modified with interrupts enabled
type guardedDevice struct {
	flash.Device
	t   *testing.T
	ctl *irq.Soft
}

//
func (g *guardedDevice) Erase(addr, length uint32) error {
	if !g.ctl.Masked() {
		g.t.Errorf("erase 0x%x outside of critical section", addr)
	}
	return g.Device.Erase(addr, length)
}

//
func (g *guardedDevice) Program(addr uint32, data []byte) error {
	if !g.ctl.Masked() {
		g.t.Errorf("program 0x%x outside of critical section", addr)
	}
	return g.Device.Program(addr, data)
}

// writeHeader places a header into an erased physical sector
func writeHeader(t *testing.T, dev flash.Device, sector uint32, h Header) {
	t.Helper()
	geo := dev.Geometry()
	page := make([]byte, geo.PageSize)
	h.EncodePage(page)
	require.NoError(t, dev.Program(geo.SectorAddress(sector), page))
}

// mapping returns the representative sector of every logical sector
func mapping(t *testing.T, v *Volume) map[uint16]uint32 {
	t.Helper()
	ret := map[uint16]uint32{}
	for id := uint16(0); id < v.Layout().LogicalCount; id++ {
		s, ok := v.FindRepresentative(id)
		require.True(t, ok, "logical sector %d not found", id)
		ret[id] = s
	}
	return ret
}

// requireNoOverlap checks that no two valid headers share logical id and
// sub-sector index
func requireNoOverlap(t *testing.T, v *Volume) {
	t.Helper()
	seen := map[[2]int]uint32{}
	for _, si := range v.Sectors() {
		if !si.Valid {
			continue
		}
		key := [2]int{int(si.Header.LogicalID), int(si.Header.SubSector)}
		if prev, ok := seen[key]; ok {
			t.Fatalf("sectors %d and %d both hold logical %d sub %d",
				prev, si.Sector, key[0], key[1])
		}
		seen[key] = si.Sector
	}
}
